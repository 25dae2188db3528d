package forward

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// ForwardedHeader marks requests emitted by this module. It is set on every
// outbound request and honored on inbound requests as a hard bypass so the
// module never intercepts its own traffic.
const ForwardedHeader = "X-RequestRouting-Forwarded"

// requestTimeout bounds each forwarded call end to end.
const requestTimeout = 10 * time.Second

// strippedHeaders are never copied from the inbound request to the outbound
// one. Content-Type is re-set explicitly from the captured value.
var strippedHeaders = map[string]struct{}{
	"Host":              {},
	"Connection":        {},
	"Content-Length":    {},
	"Expect":            {},
	"Transfer-Encoding": {},
	"Content-Type":      {},
}

// Request carries everything needed to rebuild an intercepted request for
// the new service.
type Request struct {
	URL         string
	Method      string
	Header      http.Header
	ContentType string
	Body        []byte
}

// Forwarder sends copies of intercepted requests to the new service over a
// single shared HTTP client, safe for concurrent use.
type Forwarder struct {
	client *http.Client
}

// New creates a Forwarder with the default transport.
func New() *Forwarder {
	return &Forwarder{
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: NewTransport(DefaultTransportConfig),
		},
	}
}

// Sync sends the forwarded request and blocks for the response. It returns
// nil on any transport failure or timeout, never an error.
func (f *Forwarder) Sync(fr Request) *http.Response {
	return f.send(context.Background(), fr)
}

// Async sends the forwarded request under ctx so the caller can abandon it.
// The caller owns the response body; cancellation should be re-checked
// before reading it.
func (f *Forwarder) Async(ctx context.Context, fr Request) *http.Response {
	return f.send(ctx, fr)
}

func (f *Forwarder) send(ctx context.Context, fr Request) *http.Response {
	attachBody := len(fr.Body) > 0 &&
		(strings.EqualFold(fr.Method, http.MethodPost) || strings.EqualFold(fr.Method, http.MethodPut))

	var bodyReader io.Reader
	if attachBody {
		bodyReader = bytes.NewReader(fr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, fr.Method, fr.URL, bodyReader)
	if err != nil {
		logging.Error("failed to build forwarded request",
			zap.String("url", fr.URL), zap.Error(err))
		return nil
	}

	for name, values := range fr.Header {
		if _, skip := strippedHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			req.Header.Add(name, v)
		}
	}
	req.Header.Set(ForwardedHeader, "true")

	if attachBody && fr.ContentType != "" {
		mediaType, params, err := mime.ParseMediaType(fr.ContentType)
		if err != nil {
			logging.Error("invalid content type on forwarded request, omitting",
				zap.String("content_type", fr.ContentType), zap.Error(err))
		} else {
			req.Header.Set("Content-Type", mime.FormatMediaType(mediaType, params))
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.Info("forwarded request cancelled", zap.String("url", fr.URL))
		} else {
			logging.Error("failed to contact new service",
				zap.String("url", fr.URL), zap.Error(err))
		}
		return nil
	}
	return resp
}
