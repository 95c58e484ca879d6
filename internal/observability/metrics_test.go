package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRPC(t *testing.T) {
	m := NewMetrics("")

	m.ObserveRPC("getAccountInfo", 10*time.Millisecond, nil)
	m.ObserveRPC("sendTransaction", 20*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.RPCCallErrors.WithLabelValues("getAccountInfo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCallErrors.WithLabelValues("sendTransaction")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RPCCallLatency))
}

func TestMetrics_ObserveTransaction(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveTransaction("create", StatusSuccess)
	m.ObserveTransaction("update", StatusExpired)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("create", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("update", StatusExpired)))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessfulRun), 0.0)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics("")
	b := NewMetrics("")
	a.ObserveTransaction("create", StatusError)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.TransactionsTotal.WithLabelValues("create", StatusError)))
}

func TestMetrics_Push(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotBody = string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics("")
	m.ObserveTransaction("update", StatusSuccess)

	require.NoError(t, m.Push(context.Background(), server.URL, "token_metadata_cli"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/token_metadata_cli", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestMetrics_PushError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewMetrics("")
	err := m.Push(context.Background(), server.URL, "job")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), server.URL))
}
