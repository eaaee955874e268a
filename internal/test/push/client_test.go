package push_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gigpay-backend/internal/push"
)

func TestClient_RetryWithBackoff(t *testing.T) {
	client := push.NewClient("https://api.test.com/", "test-key")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := push.NewClient("https://api.test.com/", "test-key")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestClient_Send(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := push.NewClient(server.URL, "test-key")
	err := client.Send(uuid.New(), push.Message{Title: "Offer accepted", Body: "details"})

	assert.NoError(t, err)
	assert.Equal(t, "/push/send", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestClient_Send_NoDevicesIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := push.NewClient(server.URL, "test-key")
	err := client.Send(uuid.New(), push.Message{Title: "x"})

	assert.NoError(t, err)
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := push.NewClient(server.URL, "test-key")
	err := client.Send(uuid.New(), push.Message{Title: "x"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
