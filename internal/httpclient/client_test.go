package httpclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("with default config", func(t *testing.T) {
		client := New(DefaultConfig())
		assert.NotNil(t, client)
		assert.NotNil(t, client.client)
		assert.NotNil(t, client.logger)
		assert.Equal(t, DefaultTimeout, client.client.Timeout)
	})

	t.Run("fills missing body limit", func(t *testing.T) {
		client := New(Config{Timeout: 10 * time.Second})
		assert.Equal(t, int64(DefaultMaxBodySize), client.config.MaxBodySize)
	})

	t.Run("with custom base client", func(t *testing.T) {
		baseClient := &http.Client{Timeout: 5 * time.Second}
		cfg := DefaultConfig()
		cfg.BaseClient = baseClient
		client := New(cfg)
		assert.Equal(t, baseClient, client.client)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.True(t, strings.HasPrefix(cfg.UserAgent, "somafm/"))
	assert.True(t, cfg.EnableDecompression)
	assert.Equal(t, int64(DefaultMaxBodySize), cfg.MaxBodySize)
}

func TestClient_Get(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"channels":[]}`))
		}))
		defer server.Close()

		client := New(DefaultConfig())
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, `{"channels":[]}`, string(body))
	})

	t.Run("sets user agent header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "somafm-test/1.0", r.Header.Get(HeaderUserAgent))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.UserAgent = "somafm-test/1.0"
		client := New(cfg)

		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	})

	t.Run("sets accept encoding header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acceptEncoding := r.Header.Get(HeaderAcceptEncoding)
			assert.Contains(t, acceptEncoding, "gzip")
			assert.Contains(t, acceptEncoding, "deflate")
			assert.Contains(t, acceptEncoding, "br")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(DefaultConfig())
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	})

	t.Run("invalid url", func(t *testing.T) {
		client := New(DefaultConfig())
		_, err := client.Get(context.Background(), "://bad")
		require.Error(t, err)
	})

	t.Run("context deadline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := New(DefaultConfig())
		_, err := client.Get(ctx, server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_GetBody(t *testing.T) {
	t.Run("returns body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("payload"))
		}))
		defer server.Close()

		body, err := New(DefaultConfig()).GetBody(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(body))
	})

	t.Run("non-2xx is a status error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := New(DefaultConfig()).GetBody(context.Background(), server.URL+"/channels.json?token=abc")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
		assert.NotContains(t, statusErr.URL, "abc")
	})

	t.Run("body over limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(bytes.Repeat([]byte("x"), 64))
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.MaxBodySize = 32
		_, err := New(cfg).GetBody(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})
}

func TestClient_Decompression(t *testing.T) {
	t.Run("decompresses gzip response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderContentEncoding, EncodingGzip)
			gw := gzip.NewWriter(w)
			gw.Write([]byte("hello compressed world"))
			gw.Close()
		}))
		defer server.Close()

		body, err := New(DefaultConfig()).GetBody(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "hello compressed world", string(body))
	})

	t.Run("decompresses brotli response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderContentEncoding, EncodingBrotli)
			bw := brotli.NewWriter(w)
			bw.Write([]byte(`{"channels":[{"title":"Groove Salad"}]}`))
			bw.Close()
		}))
		defer server.Close()

		body, err := New(DefaultConfig()).GetBody(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, `{"channels":[{"title":"Groove Salad"}]}`, string(body))
	})

	t.Run("handles uncompressed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("plain text"))
		}))
		defer server.Close()

		body, err := New(DefaultConfig()).GetBody(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "plain text", string(body))
	})
}

func TestObfuscateURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "obfuscates password",
			input:    "http://example.com/api?username=user&password=secret123",
			expected: "http://example.com/api?password=***&username=user",
		},
		{
			name:     "obfuscates token",
			input:    "http://example.com/api?token=abc123",
			expected: "http://example.com/api?token=***",
		},
		{
			name:     "preserves non-sensitive params",
			input:    "http://example.com/api?action=get&id=123",
			expected: "http://example.com/api?action=get&id=123",
		},
		{
			name:     "handles multiple sensitive params",
			input:    "http://example.com/api?password=p1&token=t1&key=k1",
			expected: "http://example.com/api?key=***&password=***&token=***",
		},
		{
			name:     "handles nil url",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u *url.URL
			if tt.input != "" {
				var err error
				u, err = url.Parse(tt.input)
				require.NoError(t, err)
			}

			result := obfuscateURL(u)

			if tt.expected == "" {
				assert.Empty(t, result)
				return
			}
			expectedURL, _ := url.Parse(tt.expected)
			resultURL, _ := url.Parse(result)
			assert.Equal(t, expectedURL.Host, resultURL.Host)
			assert.Equal(t, expectedURL.Path, resultURL.Path)
			assert.Equal(t, expectedURL.Query(), resultURL.Query())
		})
	}
}

func TestDecompressReader(t *testing.T) {
	var readerClosed, closerClosed bool

	reader := &mockReadCloser{
		closeFunc: func() error {
			readerClosed = true
			return nil
		},
	}
	closer := &mockReadCloser{
		closeFunc: func() error {
			closerClosed = true
			return nil
		},
	}

	dr := &decompressReader{reader: reader, closer: closer}
	dr.Close()

	assert.True(t, readerClosed)
	assert.True(t, closerClosed)
}

type mockReadCloser struct {
	closeFunc func() error
}

func (m *mockReadCloser) Read(p []byte) (int, error) {
	return 0, io.EOF
}

func (m *mockReadCloser) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}
