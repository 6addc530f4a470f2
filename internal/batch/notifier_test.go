package batch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPNotifierAcceptsCreated(t *testing.T) {
	var received Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/packing-orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL, time.Second)
	err := notifier.NotifyReady(context.Background(), Notification{
		OrderNumber: "ORD-1",
		Operator:    operatorPlaceholder,
		Lines:       []NotificationLine{{SKU: "X", BoxCode: "BX1", Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, "ORD-1", received.OrderNumber)
	require.Equal(t, "ALMACEN", received.Operator)
	require.Len(t, received.Lines, 1)
}

func TestHTTPNotifierRejectsNonCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewHTTPNotifier(server.URL, time.Second).NotifyReady(context.Background(), Notification{})
	require.ErrorIs(t, err, ErrNotifyFailed)
}

func TestHTTPNotifierReportsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := NewHTTPNotifier(server.URL, time.Second).NotifyReady(context.Background(), Notification{})
	require.ErrorIs(t, err, ErrNotifyFailed)
}
