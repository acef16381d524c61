package controller

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "guest-portal/1.0"

// TransportError means the controller could not be reached at all: DNS failure, refused
// connection, timeout or cancelled context. HTTP error statuses are never TransportErrors.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RawResponse is what the controller answered, before any interpretation.
type RawResponse struct {
	Status   int
	Location string
	Body     []byte
}

// Transport is an HTTP session with the controller. Both underlying clients share one
// cookie jar, so cookies set by a login are sent on every later call.
type Transport struct {
	follow   *resty.Client
	noFollow *resty.Client
}

// NewTransport builds a session against cfg.BaseURL with a fresh cookie jar.
func NewTransport(cfg Config, logger *zap.Logger) (*Transport, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	build := func() *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetCookieJar(jar).
			SetTLSClientConfig(&tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}).
			SetLogger(logger.Sugar()).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", userAgent)
	}

	noFollow := build().SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	return &Transport{follow: build(), noFollow: noFollow}, nil
}

// Get issues a GET, following redirects.
func (t *Transport) Get(ctx context.Context, path string) (RawResponse, error) {
	return do(ctx, t.follow, http.MethodGet, path, nil)
}

// Post sends body as JSON, following redirects.
func (t *Transport) Post(ctx context.Context, path string, body any) (RawResponse, error) {
	return do(ctx, t.follow, http.MethodPost, path, body)
}

// PostNoRedirect posts without following redirects so the caller can inspect Location.
func (t *Transport) PostNoRedirect(ctx context.Context, path string, body any) (RawResponse, error) {
	return do(ctx, t.noFollow, http.MethodPost, path, body)
}

func do(ctx context.Context, client *resty.Client, method, path string, body any) (RawResponse, error) {
	req := client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return RawResponse{}, &TransportError{Method: method, Path: path, Err: err}
	}
	return RawResponse{
		Status:   resp.StatusCode(),
		Location: resp.Header().Get("Location"),
		Body:     resp.Body(),
	}, nil
}
