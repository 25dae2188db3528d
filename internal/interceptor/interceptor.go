package interceptor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/wudi/reqrouter/internal/config"
	"github.com/wudi/reqrouter/internal/forward"
	"github.com/wudi/reqrouter/internal/logging"
	"github.com/wudi/reqrouter/internal/middleware"
	"github.com/wudi/reqrouter/internal/routing"
	"go.uber.org/zap"
)

// InterceptPath is the only path the module acts on, compared
// case-insensitively. Requests to any other path pass through untouched.
const InterceptPath = "/dctserver.aspx"

// Config wires an Interceptor's collaborators.
type Config struct {
	Provider   config.Provider
	Forwarder  *forward.Forwarder
	Metrics    *Metrics
	Mismatches *MismatchStore
}

// Interceptor routes requests hitting the legacy XML endpoint according to
// the configured rules: pass through (RO), replace with the new service's
// response (RN), or shadow to the new service and compare (RP). It holds no
// per-request state between requests and never surfaces an error to the
// host; every failure resolves to a pass-through, a synthetic error
// response, or a logged no-op.
type Interceptor struct {
	provider   config.Provider
	forwarder  *forward.Forwarder
	metrics    *Metrics
	mismatches *MismatchStore
}

// New creates an Interceptor.
func New(cfg Config) *Interceptor {
	i := &Interceptor{
		provider:   cfg.Provider,
		forwarder:  cfg.Forwarder,
		metrics:    cfg.Metrics,
		mismatches: cfg.Mismatches,
	}
	if i.forwarder == nil {
		i.forwarder = forward.New()
	}
	if i.metrics == nil {
		i.metrics = NewMetrics(nil)
	}
	if i.mismatches == nil {
		i.mismatches = NewMismatchStore(0)
	}
	return i
}

// Mismatches exposes the mismatch ring for the admin surface.
func (i *Interceptor) Mismatches() *MismatchStore {
	return i.mismatches
}

// Middleware returns the interceptor as a middleware wrapping the legacy
// handler.
func (i *Interceptor) Middleware() middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			i.serve(w, r, next)
		})
	}
}

func (i *Interceptor) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	// Loop break: never intercept our own outbound traffic.
	if r.Header.Get(forward.ForwardedHeader) == "true" {
		next.ServeHTTP(w, r)
		return
	}
	if !strings.EqualFold(r.URL.Path, InterceptPath) {
		next.ServeHTTP(w, r)
		return
	}

	// One snapshot per request; never re-read mid-request.
	cfg := i.provider.Snapshot()

	var body []byte
	if strings.EqualFold(r.Method, http.MethodPost) {
		body = routing.BufferBody(r)
	}

	mode := routing.Decide(r.Method, body, cfg)
	i.metrics.Decisions.WithLabelValues(mode.String()).Inc()

	switch mode {
	case config.RouteNew:
		i.routeNew(w, r, cfg, body)
	case config.RunParallel:
		i.runParallel(w, r, next, cfg, body)
	default:
		next.ServeHTTP(w, r)
	}
}

// routeNew forwards the request synchronously and mirrors the new service's
// response to the client. The legacy handler is not invoked.
func (i *Interceptor) routeNew(w http.ResponseWriter, r *http.Request, cfg *config.RoutingConfig, body []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("unexpected error routing request",
				zap.String("url", cfg.NewServiceURL), zap.Any("panic", rec))
			writeError(w, http.StatusInternalServerError, "Error routing request")
		}
	}()

	resp := i.forwarder.Sync(forward.Request{
		URL:         cfg.NewServiceURL,
		Method:      r.Method,
		Header:      r.Header,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	if resp == nil {
		i.metrics.ForwardErrors.WithLabelValues("sync").Inc()
		writeError(w, http.StatusServiceUnavailable, "Error contacting backend service")
		return
	}

	CopyResponse(w, resp)
}

// runParallel serves the request from the legacy handler while a shadow copy
// goes to the new service. At end of request the shadow is cancelled and, if
// it already finished on its own, the two response bodies are compared.
func (i *Interceptor) runParallel(w http.ResponseWriter, r *http.Request, next http.Handler, cfg *config.RoutingConfig, body []byte) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan shadowResult, 1)
	go i.shadow(ctx, forward.Request{
		URL:         cfg.NewServiceURL,
		Method:      r.Method,
		Header:      r.Header.Clone(),
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	}, result, time.Now())

	cw := NewCaptureWriter(w)
	next.ServeHTTP(cw, r)

	// End of request: the shadow is always cancelled, then probed without
	// blocking. The client is never made to wait on the shadow.
	cancel()
	select {
	case res := <-result:
		if res.cancelled || res.faulted {
			logging.Info("shadow request did not finish, skipping comparison")
			i.metrics.Comparisons.WithLabelValues(ComparisonSkipped.String()).Inc()
			return
		}
		i.finishComparison(r, cw, res.body)
	default:
		logging.Info("shadow request still in flight at end of request, skipping comparison")
		i.metrics.Comparisons.WithLabelValues(ComparisonSkipped.String()).Inc()
	}
}

func (i *Interceptor) finishComparison(r *http.Request, cw *CaptureWriter, shadowBody *string) {
	captured := cw.Captured()
	outcome := CompareResponses(captured, shadowBody)
	i.metrics.Comparisons.WithLabelValues(outcome.String()).Inc()

	if outcome == ComparisonMismatch {
		i.mismatches.Add(MismatchEntry{
			Timestamp:    time.Now(),
			Method:       r.Method,
			Path:         r.URL.Path,
			LegacyBytes:  len(captured),
			ShadowBytes:  len(*shadowBody),
			LegacyDigest: xxhash.Sum64(captured),
			ShadowDigest: xxhash.Sum64String(*shadowBody),
		})
	}
}

// shadowResult is the terminal state of one shadow call. body is nil when
// the call resolved without a response; cancelled and faulted mark results
// that must not be compared.
type shadowResult struct {
	body      *string
	cancelled bool
	faulted   bool
}

func (i *Interceptor) shadow(ctx context.Context, fr forward.Request, out chan<- shadowResult, start time.Time) {
	resp := i.forwarder.Async(ctx, fr)
	if resp == nil {
		if ctx.Err() != nil {
			out <- shadowResult{cancelled: true}
			return
		}
		i.metrics.ForwardErrors.WithLabelValues("shadow").Inc()
		// The call itself resolved (to no response); comparison still runs
		// and reports the empty side.
		out <- shadowResult{}
		return
	}
	defer resp.Body.Close()

	// Cancellation is observed again before the body is read.
	if ctx.Err() != nil {
		out <- shadowResult{cancelled: true}
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			out <- shadowResult{cancelled: true}
			return
		}
		logging.Error("failed to read shadow response body", zap.Error(err))
		i.metrics.ForwardErrors.WithLabelValues("shadow").Inc()
		out <- shadowResult{faulted: true}
		return
	}

	i.metrics.ShadowLatency.Observe(time.Since(start).Seconds())
	body := string(data)
	out <- shadowResult{body: &body}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, msg)
}
