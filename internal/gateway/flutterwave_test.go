package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "NUV-2026-000001", req.TxRef)
		assert.Equal(t, "215.00", req.Amount)
		assert.Equal(t, "NGN", req.Currency)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]string{"link": "https://checkout.example/abc"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", 5*time.Second)

	link, err := client.CreatePayment(context.Background(), &PaymentRequest{
		TxRef:    "NUV-2026-000001",
		Amount:   "215.00",
		Currency: "NGN",
		Customer: Customer{Email: "jane@example.com", Name: "Jane Doe"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", link)
}

func TestCreatePaymentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "error",
			"message": "Invalid currency",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", 5*time.Second)

	_, err := client.CreatePayment(context.Background(), &PaymentRequest{TxRef: "NUV-2026-000001"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestCreatePaymentMissingLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", 5*time.Second)

	_, err := client.CreatePayment(context.Background(), &PaymentRequest{TxRef: "NUV-2026-000001"})
	assert.Error(t, err)
}

func TestVerifyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions/12345/verify", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"id":     12345,
				"status": "successful",
				"tx_ref": "BK-00007",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", 5*time.Second)

	result, err := client.VerifyTransaction(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), result.Data.ID)
	assert.True(t, result.Successful("BK-00007"))
}

func TestVerifyResultSuccessful(t *testing.T) {
	settled := &VerifyResult{
		Status: "success",
		Data:   VerifyData{Status: "successful", TxRef: "NUV-2026-000001"},
	}
	assert.True(t, settled.Successful("NUV-2026-000001"))

	// reference mismatch means a payment settled for some other order
	assert.False(t, settled.Successful("NUV-2026-000002"))

	failed := &VerifyResult{
		Status: "success",
		Data:   VerifyData{Status: "failed", TxRef: "NUV-2026-000001"},
	}
	assert.False(t, failed.Successful("NUV-2026-000001"))

	errored := &VerifyResult{
		Status: "error",
		Data:   VerifyData{Status: "successful", TxRef: "NUV-2026-000001"},
	}
	assert.False(t, errored.Successful("NUV-2026-000001"))
}
