package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/torosent/hostprobe/internal/tracing"
)

// DefaultUserAgent is sent unless a User-Agent header is configured.
const DefaultUserAgent = "hostprobe/1.0"

type RequestBuilder struct {
	headers   http.Header
	propagate bool
}

func NewRequestBuilder(headers map[string]string) (*RequestBuilder, error) {
	h := http.Header{}
	for key, value := range headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if canonicalKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}

		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}

		h.Set(canonicalKey, value)
	}
	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", DefaultUserAgent)
	}

	return &RequestBuilder{headers: h}, nil
}

// WithTracePropagation makes Build inject W3C trace context headers.
func (b *RequestBuilder) WithTracePropagation(enabled bool) *RequestBuilder {
	b.propagate = enabled
	return b
}

// Build creates a GET request for target bound to ctx.
func (b *RequestBuilder) Build(ctx context.Context, target string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers))
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	return req, nil
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Session is one HTTP client scoped to a run. Close releases its idle
// connections; it is safe to call more than once.
type Session struct {
	client *http.Client
	once   sync.Once
}

func NewSession(timeout time.Duration) *Session {
	return &Session{client: NewClient(timeout)}
}

func (s *Session) Do(req *http.Request) (*http.Response, error) {
	return s.client.Do(req)
}

func (s *Session) Close() error {
	s.once.Do(s.client.CloseIdleConnections)
	return nil
}
