package fx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_ToSGD(t *testing.T) {
	rates := Static{USD: 1.35}

	got, err := rates.ToSGD(context.Background(), "usd")
	require.NoError(t, err)
	assert.Equal(t, 1.35, got)

	got, err = rates.ToSGD(context.Background(), SGD)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	_, err = rates.ToSGD(context.Background(), HKD)
	assert.True(t, errors.Is(err, ErrUnknownCurrency))
}

func TestClient_ToSGD(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, SGD, r.URL.Query().Get("to"))
		switch r.URL.Query().Get("from") {
		case USD:
			_, _ = w.Write([]byte(`{"amount":1.0,"base":"USD","rates":{"SGD":1.3412}}`))
		case HKD:
			_, _ = w.Write([]byte(`{"amount":1.0,"base":"HKD","rates":{"SGD":0.1721}}`))
		default:
			_, _ = w.Write([]byte(`{"rates":{}}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute, WithRetry(1, time.Millisecond))

	got, err := c.ToSGD(context.Background(), USD)
	require.NoError(t, err)
	assert.Equal(t, 1.3412, got)

	_, err = c.ToSGD(context.Background(), USD)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from cache")

	got, err = c.ToSGD(context.Background(), HKD)
	require.NoError(t, err)
	assert.Equal(t, 0.1721, got)

	_, err = c.ToSGD(context.Background(), "EUR")
	var rateErr *RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "EUR", rateErr.Currency)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{name: "service unavailable then ok", status: http.StatusServiceUnavailable, wantCalls: 2},
		{name: "rate limited then ok", status: http.StatusTooManyRequests, wantCalls: 2},
		{name: "not found is final", status: http.StatusNotFound, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(`{"rates":{"SGD":1.34}}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Minute, WithRetry(3, time.Millisecond))
			got, err := c.ToSGD(context.Background(), USD)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1.34, got)
		})
	}
}
