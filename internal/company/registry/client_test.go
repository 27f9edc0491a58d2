package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastro/pkg/platform/sentinel"
)

type latencyRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *latencyRecorder) ObserveRegistryLatency(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestFetch(t *testing.T) {
	t.Run("returns payload verbatim on success", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cnpj":"11222333000181","razao_social":"ACME LTDA","extra":{"a":1}}`))
		}))
		defer srv.Close()

		rec := &latencyRecorder{}
		client := New(Config{BaseURL: srv.URL + "/", Metrics: rec})

		body, err := client.Fetch(context.Background(), "11222333000181")
		require.NoError(t, err)
		assert.Equal(t, "/11222333000181", gotPath)
		assert.JSONEq(t, `{"cnpj":"11222333000181","razao_social":"ACME LTDA","extra":{"a":1}}`, string(body))
		assert.Equal(t, []string{"ok"}, rec.outcomes)
	})

	t.Run("non-success status is not found", func(t *testing.T) {
		for _, status := range []int{http.StatusNotFound, http.StatusBadRequest, http.StatusServiceUnavailable} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			rec := &latencyRecorder{}
			client := New(Config{BaseURL: srv.URL, Metrics: rec})

			_, err := client.Fetch(context.Background(), "11222333000181")
			assert.ErrorIs(t, err, sentinel.ErrNotFound, "status %d", status)
			assert.Equal(t, []string{"not_found"}, rec.outcomes)
			srv.Close()
		}
	})

	t.Run("non-object body is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := New(Config{BaseURL: srv.URL}).Fetch(context.Background(), "11222333000181")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("transport failure is unavailable", func(t *testing.T) {
		rec := &latencyRecorder{}
		client := New(Config{BaseURL: "http://registry.invalid", HTTPClient: failingDoer{}, Metrics: rec})

		_, err := client.Fetch(context.Background(), "11222333000181")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.NotErrorIs(t, err, sentinel.ErrNotFound)
		assert.Equal(t, []string{"error"}, rec.outcomes)
	})

	t.Run("client timeout is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		_, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Fetch(context.Background(), "11222333000181")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}
