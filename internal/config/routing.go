package config

import (
	"strings"
	"sync/atomic"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// Keys recognized in the routing key/value store.
const (
	KeyNewService    = "Routing.NewService"
	KeyLegacyService = "Routing.LegacyService"
	KeyGET           = "Routing.GET"
	KeyPOST          = "Routing.POST"
)

// RoutingConfig is an immutable snapshot of the routing rules. A snapshot
// with Valid=false routes every request to the legacy handler.
type RoutingConfig struct {
	// NewServiceURL is the absolute URL of the new backend service. It is
	// required whenever any configured mode is RN or RP.
	NewServiceURL string

	// LegacyServiceURL is the upstream the legacy handler proxies to.
	LegacyServiceURL string

	// GETMode applies to all GET requests.
	GETMode Mode

	// POSTModes maps a request-type name (lower-cased) to its mode.
	POSTModes map[string]Mode

	// Valid is false when any parse defect was found.
	Valid bool
}

// PostMode looks up the mode for a POST request-type name, case-insensitively.
func (c *RoutingConfig) PostMode(name string) (Mode, bool) {
	m, ok := c.POSTModes[strings.ToLower(name)]
	return m, ok
}

func (c *RoutingConfig) requiresNewService() bool {
	if c.GETMode != RouteOld {
		return true
	}
	for _, m := range c.POSTModes {
		if m != RouteOld {
			return true
		}
	}
	return false
}

// ParseRouting builds a RoutingConfig from a key/value store. A defect marks
// the whole snapshot invalid, but parsing continues so that every defect is
// logged in one pass.
func ParseRouting(store Store) *RoutingConfig {
	cfg := &RoutingConfig{
		NewServiceURL:    strings.TrimSpace(store.Get(KeyNewService)),
		LegacyServiceURL: strings.TrimSpace(store.Get(KeyLegacyService)),
		POSTModes:        make(map[string]Mode),
		Valid:            true,
	}

	if raw := strings.TrimSpace(store.Get(KeyGET)); raw != "" {
		mode, ok := ParseMode(raw)
		if !ok {
			logging.Error("invalid GET routing mode", zap.String("value", raw))
			cfg.Valid = false
		} else {
			cfg.GETMode = mode
		}
	}

	if raw := strings.TrimSpace(store.Get(KeyPOST)); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			name, modeStr, ok := splitPair(pair)
			if !ok {
				logging.Error("malformed POST routing pair, expected Name|Mode",
					zap.String("pair", strings.TrimSpace(pair)))
				cfg.Valid = false
				continue
			}
			mode, ok := ParseMode(modeStr)
			if !ok {
				logging.Error("invalid POST routing mode",
					zap.String("name", name), zap.String("value", modeStr))
				cfg.Valid = false
				continue
			}
			// Duplicate names: last write wins.
			cfg.POSTModes[strings.ToLower(name)] = mode
		}
	}

	if cfg.requiresNewService() && cfg.NewServiceURL == "" {
		logging.Error("routing requires a new service URL but none is configured",
			zap.String("key", KeyNewService))
		cfg.Valid = false
	}

	return cfg
}

// splitPair splits a "Name | Mode" token into its two non-empty parts.
func splitPair(pair string) (name, mode string, ok bool) {
	parts := strings.Split(pair, "|")
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	mode = strings.TrimSpace(parts[1])
	if name == "" || mode == "" {
		return "", "", false
	}
	return name, mode, true
}

// Provider yields the routing snapshot used for a single request. The
// interceptor reads exactly one snapshot per request and never re-reads it
// mid-request.
type Provider interface {
	Snapshot() *RoutingConfig
}

// StoreProvider re-reads its key/value store on every snapshot request,
// matching deployments that keep routing flags in a shared store and expect
// flips to take effect immediately.
type StoreProvider struct {
	store Store
}

// NewStoreProvider creates a Provider over a raw key/value store.
func NewStoreProvider(store Store) *StoreProvider {
	return &StoreProvider{store: store}
}

// Snapshot implements Provider.
func (p *StoreProvider) Snapshot() *RoutingConfig {
	return ParseRouting(p.store)
}

// CachedProvider holds a parsed snapshot and swaps it atomically when the
// underlying configuration changes.
type CachedProvider struct {
	current atomic.Pointer[RoutingConfig]
}

// NewCachedProvider creates a Provider seeded with cfg.
func NewCachedProvider(cfg *RoutingConfig) *CachedProvider {
	p := &CachedProvider{}
	p.current.Store(cfg)
	return p
}

// Snapshot implements Provider.
func (p *CachedProvider) Snapshot() *RoutingConfig {
	return p.current.Load()
}

// Update replaces the cached snapshot.
func (p *CachedProvider) Update(cfg *RoutingConfig) {
	p.current.Store(cfg)
}
