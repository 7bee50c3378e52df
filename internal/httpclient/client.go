// Package httpclient provides the HTTP client used to fetch the channel
// directory. It adds default headers, transparent decompression, and
// structured request logging on top of the standard http.Client.
package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/jmylchreest/somafm/internal/version"
)

// Default configuration values.
const (
	DefaultTimeout              = 15 * time.Second
	DefaultMaxBodySize          = 16 << 20
	DefaultAcceptEncodingHeader = "gzip, deflate, br"
)

// HTTP header constants.
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderUserAgent       = "User-Agent"

	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
)

// StatusError is returned by GetBody for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the overall request timeout. Zero means no client-level timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Logger is the structured logger for request/response logging.
	Logger *slog.Logger

	// EnableDecompression enables automatic response decompression.
	EnableDecompression bool

	// MaxBodySize caps how many bytes GetBody will read.
	MaxBodySize int64

	// BaseClient is the underlying http.Client to use.
	// If nil, a default client is created.
	BaseClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		UserAgent:           version.UserAgent(),
		Logger:              slog.Default(),
		EnableDecompression: true,
		MaxBodySize:         DefaultMaxBodySize,
	}
}

// Client is an HTTP client with default headers and decompression.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	baseClient := cfg.BaseClient
	if baseClient == nil {
		baseClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		config: cfg,
		client: baseClient,
		logger: cfg.Logger,
	}
}

// Do executes an HTTP request. The returned body is decompressed when
// decompression is enabled.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderUserAgent) == "" && c.config.UserAgent != "" {
		req.Header.Set(HeaderUserAgent, c.config.UserAgent)
	}
	if c.config.EnableDecompression && req.Header.Get(HeaderAcceptEncoding) == "" {
		req.Header.Set(HeaderAcceptEncoding, DefaultAcceptEncodingHeader)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Debug("request failed",
			slog.String("url", obfuscateURL(req.URL)),
			slog.String("method", req.Method),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Debug("request completed",
		slog.String("url", obfuscateURL(req.URL)),
		slog.String("method", req.Method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Int64("content_length", resp.ContentLength),
	)

	if c.config.EnableDecompression {
		resp.Body = c.wrapDecompression(resp)
	}

	return resp, nil
}

// Get performs a GET request to the specified URL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// GetBody performs a GET request and returns the full response body.
// Non-2xx responses are reported as *StatusError.
func (c *Client) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: obfuscateURL(resp.Request.URL), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.config.MaxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.config.MaxBodySize)
	}
	return body, nil
}

// wrapDecompression wraps the response body with appropriate decompression.
func (c *Client) wrapDecompression(resp *http.Response) io.ReadCloser {
	encoding := resp.Header.Get(HeaderContentEncoding)
	if encoding == "" {
		return resp.Body
	}

	switch strings.ToLower(encoding) {
	case EncodingGzip:
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.Warn("failed to create gzip reader, returning raw body",
				slog.String("error", err.Error()),
			)
			return resp.Body
		}
		return &decompressReader{reader: reader, closer: resp.Body}

	case EncodingDeflate:
		reader := flate.NewReader(resp.Body)
		return &decompressReader{reader: reader, closer: resp.Body}

	case EncodingBrotli:
		reader := brotli.NewReader(resp.Body)
		return &decompressReader{reader: reader, closer: resp.Body}

	default:
		c.logger.Debug("unknown content encoding, returning raw body",
			slog.String("encoding", encoding),
		)
		return resp.Body
	}
}

// decompressReader wraps a decompression reader with the original body closer.
type decompressReader struct {
	reader io.Reader
	closer io.Closer
}

func (d *decompressReader) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decompressReader) Close() error {
	if closer, ok := d.reader.(io.Closer); ok {
		closer.Close()
	}
	return d.closer.Close()
}

// obfuscateURL returns a URL string with sensitive query parameters obfuscated.
func obfuscateURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	sanitized := *u
	query := sanitized.Query()

	sensitiveParams := []string{
		"password", "passwd", "pass", "pwd",
		"token", "api_key", "apikey", "key",
		"secret", "auth", "authorization",
		"credential", "credentials",
	}

	for _, param := range sensitiveParams {
		if query.Has(param) {
			query.Set(param, "***")
		}
	}

	sanitized.RawQuery = query.Encode()
	return sanitized.String()
}
