package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/jmylchreest/somafm/internal/httpclient"
)

// TimeoutError reports a fetch that exceeded its time bound.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetching %s timed out after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError reports a failure to reach the directory host.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnknownFetchError reports any other fetch failure, including non-2xx responses.
type UnknownFetchError struct {
	URL string
	Err error
}

func (e *UnknownFetchError) Error() string {
	return fmt.Sprintf("fetching %s failed: %v", e.URL, e.Err)
}

func (e *UnknownFetchError) Unwrap() error { return e.Err }

// CorruptResponseError reports a response body that is not a channel feed.
type CorruptResponseError struct {
	URL string
	Err error
}

func (e *CorruptResponseError) Error() string {
	return fmt.Sprintf("invalid channel list from %s: %v", e.URL, e.Err)
}

func (e *CorruptResponseError) Unwrap() error { return e.Err }

// classify maps a transport error onto the fetch error taxonomy.
func classify(rawURL string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL, Timeout: timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: rawURL, Timeout: timeout, Err: err}
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return &UnknownFetchError{URL: rawURL, Err: err}
	}

	if isConnectionError(err) {
		return &NetworkError{URL: rawURL, Err: err}
	}

	return &UnknownFetchError{URL: rawURL, Err: err}
}

func isConnectionError(err error) bool {
	var (
		opErr       *net.OpError
		dnsErr      *net.DNSError
		recordErr   tls.RecordHeaderError
		certErr     *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.As(err, &recordErr),
		errors.As(err, &certErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}
	return false
}
