package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/wudi/reqrouter/internal/config"
	"github.com/wudi/reqrouter/internal/forward"
	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// LegacyProxy is the stand-in for the legacy handler the interceptor fronts:
// a reverse proxy to the configured legacy upstream. Requests reaching it
// have already passed the interceptor, so it never routes or compares.
type LegacyProxy struct {
	provider  config.Provider
	transport http.RoundTripper

	mu      sync.Mutex
	proxies map[string]*httputil.ReverseProxy
}

// NewLegacyProxy creates a LegacyProxy reading its upstream from provider.
func NewLegacyProxy(provider config.Provider) *LegacyProxy {
	return &LegacyProxy{
		provider:  provider,
		transport: forward.NewTransport(forward.DefaultTransportConfig),
		proxies:   make(map[string]*httputil.ReverseProxy),
	}
}

// ServeHTTP implements http.Handler.
func (p *LegacyProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := p.provider.Snapshot().LegacyServiceURL
	if target == "" {
		http.Error(w, "no legacy backend configured", http.StatusBadGateway)
		return
	}

	proxy, err := p.proxyFor(target)
	if err != nil {
		logging.Error("invalid legacy backend URL",
			zap.String("url", target), zap.Error(err))
		http.Error(w, "invalid legacy backend", http.StatusBadGateway)
		return
	}

	proxy.ServeHTTP(w, r)
}

// proxyFor returns a cached reverse proxy for target, building one on first
// use. The cache keeps hot-reloaded upstream switches cheap.
func (p *LegacyProxy) proxyFor(target string) (*httputil.ReverseProxy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if proxy, ok := p.proxies[target]; ok {
		return proxy, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.Transport = p.transport
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.Error("legacy backend unreachable",
			zap.String("url", target), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}

	p.proxies[target] = proxy
	return proxy, nil
}
