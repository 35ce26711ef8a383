// Package transport is the HTTP Abstraction: a request builder, a response
// holder, and a client send contract. It generalizes the teacher's
// mattermost.Client.do() helper (pkg/mattermost/client.go) from a single
// JSON-only REST client into the declared-size-body, case-insensitive-header
// contract the wire protocol needs, and folds every non-2xx response through
// the shared mclerror HTTP-status mapping instead of an ad hoc error string.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wisbric/mindconnect-agent/internal/list"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/internal/telemetry"
)

// Header is a single name/value pair. Names are stored as given; lookup is
// always case-insensitive, matching the source's header list contract.
type Header struct {
	Name  string
	Value string
}

// HeaderList is the doubly linked list of headers shared by requests and
// responses, built on the List Primitive per spec.md's component table.
type HeaderList struct {
	l *list.List[Header]
}

// NewHeaderList returns an empty header list.
func NewHeaderList() *HeaderList {
	return &HeaderList{l: list.New[Header]()}
}

// Add appends a header, preserving any existing header with the same name
// (matching net/http's multi-value header semantics).
func (h *HeaderList) Add(name, value string) {
	h.l.Add(Header{Name: name, Value: value})
}

// Get returns the first value for name, matched case-insensitively, with one
// leading space after ":" trimmed when present.
func (h *HeaderList) Get(name string) (string, bool) {
	header, ok := list.Exist(h.l, name, func(data Header, target any) bool {
		return strings.EqualFold(data.Name, target.(string))
	})
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(header.Value, " "), true
}

// All returns every header in insertion order.
func (h *HeaderList) All() []Header {
	return h.l.ToSlice()
}

// Len returns the number of headers in the list.
func (h *HeaderList) Len() int {
	return h.l.Len()
}

// HttpRequest owns the method, URL, header list, and body for one round
// trip. Exactly one of Body or BodyStream may be set; when BodyStream is
// set, BodySize must be set to its exact declared length so the transport
// never switches to chunked transfer-encoding.
type HttpRequest struct {
	Method     string
	URL        string
	Headers    *HeaderList
	Body       []byte
	BodyStream io.Reader
	BodySize   int64
}

// NewRequest builds an HttpRequest with a buffered body.
func NewRequest(method, url string, body []byte) *HttpRequest {
	return &HttpRequest{Method: method, URL: url, Headers: NewHeaderList(), Body: body}
}

// NewStreamingRequest builds an HttpRequest whose body is produced by a
// declared-size streaming reader rather than a fully buffered slice.
func NewStreamingRequest(method, url string, body io.Reader, size int64) *HttpRequest {
	return &HttpRequest{Method: method, URL: url, Headers: NewHeaderList(), BodyStream: body, BodySize: size}
}

// HttpResponse owns the status code, header list, and payload of a
// completed round trip.
type HttpResponse struct {
	StatusCode int
	Headers    *HeaderList
	Body       []byte
}

// Kind maps the response's status code to the fixed mclerror.Kind table.
func (r *HttpResponse) Kind() mclerror.Kind {
	return mclerror.FromStatus(r.StatusCode)
}

// Client performs one network round trip per Send call, logging each
// attempt with its correlation ID the way the teacher's handlers log
// outbound calls: INFO on success, ERROR with status, correlation ID, and
// body on failure.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client with the given per-request timeout. Timeout is
// the transport's only means of cancellation beyond ctx, matching the
// source's "cooperative via timeout only" contract.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NewClientWithCertificate builds a Client that trusts certPEM in addition
// to the platform's default trust store, for configurations that supply a
// custom certificate (§4.8: "Certificate may be a PEM string or a path to
// a PEM file; absence defers to the transport's default trust store").
func NewClientWithCertificate(timeout time.Duration, certPEM string, logger *slog.Logger) (*Client, error) {
	if certPEM == "" {
		return NewClient(timeout, logger), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM([]byte(certPEM)) {
		return nil, mclerror.New(mclerror.ImproperCertificate, "certificate is not valid PEM")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
		},
		logger: logger,
	}, nil
}

// Send issues exactly one HTTP round trip for req, blocking until a
// response is received or ctx/the client timeout elapses. correlationID is
// attached to every log line so a single request can be traced through the
// agent and the server. endpoint labels the request_duration_seconds
// histogram (e.g. "onboard", "upload") so callers don't need their own
// timing code around every Send call.
func (c *Client) Send(ctx context.Context, req *HttpRequest, correlationID, endpoint string) (*HttpResponse, error) {
	start := time.Now()
	defer func() {
		telemetry.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	contentLength := int64(0)
	switch {
	case req.BodyStream != nil:
		body = req.BodyStream
		contentLength = req.BodySize
	case req.Body != nil:
		body = strings.NewReader(string(req.Body))
		contentLength = int64(len(req.Body))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, mclerror.Wrap(mclerror.InvalidParameter, "building request", err)
	}
	httpReq.ContentLength = contentLength
	if req.Headers != nil {
		for _, h := range req.Headers.All() {
			httpReq.Header.Add(h.Name, h.Value)
		}
	}
	httpReq.Header.Set("Correlation-ID", correlationID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("request failed", "method", req.Method, "url", req.URL, "correlation_id", correlationID, "error", err)
		return nil, mapSendError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mclerror.Wrap(mclerror.NetworkReceiveFail, "reading response body", err)
	}

	respHeaders := NewHeaderList()
	for name, values := range resp.Header {
		for _, v := range values {
			respHeaders.Add(name, v)
		}
	}

	response := &HttpResponse{StatusCode: resp.StatusCode, Headers: respHeaders, Body: payload}

	if resp.StatusCode >= 400 {
		c.logger.Error("request returned failure status",
			"method", req.Method, "url", req.URL, "status", resp.StatusCode,
			"correlation_id", correlationID, "body", string(payload))
	} else {
		c.logger.Info("request succeeded",
			"method", req.Method, "url", req.URL, "status", resp.StatusCode, "correlation_id", correlationID)
	}

	return response, nil
}

// mapSendError turns a transport-level failure (never reached the server)
// into the closed Kind taxonomy instead of leaking a raw net/url error.
func mapSendError(err error) error {
	if err == context.DeadlineExceeded || strings.Contains(err.Error(), "Client.Timeout") || strings.Contains(err.Error(), "deadline exceeded") {
		return mclerror.Wrap(mclerror.RequestTimeout, "request timed out", err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such host"):
		return mclerror.Wrap(mclerror.CouldNotResolveHost, "resolving host", err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connect:"):
		return mclerror.Wrap(mclerror.CouldNotConnect, "connecting to host", err)
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "x509"):
		return mclerror.Wrap(mclerror.ServerCertificateNotVerified, "verifying server certificate", err)
	case strings.Contains(msg, "tls:"):
		return mclerror.Wrap(mclerror.SslHandshakeFail, "TLS handshake", err)
	default:
		return mclerror.Wrap(mclerror.NetworkSendFail, "sending request", err)
	}
}
