package replicate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Brianwan04/PixBackend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPinnedVersion(t *testing.T) {
	assert.Equal(t, "abc123", ExtractPinnedVersion("owner/model:abc123"))
	assert.Equal(t, "", ExtractPinnedVersion("owner/model"))
	assert.Equal(t, "", ExtractPinnedVersion("owner/model:v1:extra"))
}

func TestResolveVersionIDPinnedSkipsUpstream(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewAdaptor(server.URL, "test-token", server.Client())
	version, err := a.ResolveVersionID(context.Background(), "owner/model:pinned-v1")
	require.NoError(t, err)
	assert.Equal(t, "pinned-v1", version)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestResolveVersionIDCachesFirstLookup(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/models/owner%2Fmodel/versions", r.URL.EscapedPath())
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"v-first"},{"id":"v-second"}]}`))
	}))
	defer server.Close()

	a := NewAdaptor(server.URL, "test-token", server.Client())
	for i := 0; i < 3; i++ {
		version, err := a.ResolveVersionID(context.Background(), "owner/model")
		require.NoError(t, err)
		assert.Equal(t, "v-first", version)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestResolveVersionIDAlternateShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"versions list", `{"versions":[{"id":"v-a"}]}`, "v-a"},
		{"bare array of objects", `[{"id":"v-b"}]`, "v-b"},
		{"bare array of strings", `["v-c"]`, "v-c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			a := NewAdaptor(server.URL, "test-token", server.Client())
			version, err := a.ResolveVersionID(context.Background(), "owner/model")
			require.NoError(t, err)
			assert.Equal(t, tt.want, version)
		})
	}
}

func TestResolveVersionIDNoVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	a := NewAdaptor(server.URL, "test-token", server.Client())
	_, err := a.ResolveVersionID(context.Background(), "owner/model")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeNoVersionAvailable))
}

func TestResolveVersionIDUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"model not found"}`))
	}))
	defer server.Close()

	a := NewAdaptor(server.URL, "test-token", server.Client())
	_, err := a.ResolveVersionID(context.Background(), "owner/missing")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeUpstreamError))
	assert.Contains(t, err.Error(), "model not found")
}
