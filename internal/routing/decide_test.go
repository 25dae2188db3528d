package routing

import (
	"testing"

	"github.com/wudi/reqrouter/internal/config"
)

func testConfig(t *testing.T, store config.MapStore) *config.RoutingConfig {
	t.Helper()
	cfg := config.ParseRouting(store)
	if !cfg.Valid {
		t.Fatalf("test config unexpectedly invalid: %+v", cfg)
	}
	return cfg
}

func TestDecideGET(t *testing.T) {
	cfg := testConfig(t, config.MapStore{
		config.KeyNewService: "http://new/svc",
		config.KeyGET:        "RN",
	})

	if got := Decide("GET", nil, cfg); got != config.RouteNew {
		t.Errorf("Decide(GET) = %v, want RN", got)
	}
	// Method comparison is case-insensitive.
	if got := Decide("get", nil, cfg); got != config.RouteNew {
		t.Errorf("Decide(get) = %v, want RN", got)
	}
}

func TestDecideInvalidConfig(t *testing.T) {
	cfg := config.ParseRouting(config.MapStore{config.KeyGET: "RN"}) // no URL -> invalid
	if cfg.Valid {
		t.Fatal("expected invalid config")
	}

	if got := Decide("GET", nil, cfg); got != config.RouteOld {
		t.Errorf("invalid config must decide RO, got %v", got)
	}
	if got := Decide("POST", []byte("<root><requests><Foo/></requests></root>"), cfg); got != config.RouteOld {
		t.Errorf("invalid config must decide RO for POST too, got %v", got)
	}
}

func TestDecideNilConfig(t *testing.T) {
	if got := Decide("GET", nil, nil); got != config.RouteOld {
		t.Errorf("nil config must decide RO, got %v", got)
	}
}

func TestDecideOtherMethods(t *testing.T) {
	cfg := testConfig(t, config.MapStore{
		config.KeyNewService: "http://new/svc",
		config.KeyGET:        "RN",
		config.KeyPOST:       "Foo|RN",
	})

	for _, method := range []string{"PUT", "DELETE", "HEAD", "OPTIONS", "PATCH"} {
		if got := Decide(method, nil, cfg); got != config.RouteOld {
			t.Errorf("Decide(%s) = %v, want RO", method, got)
		}
	}
}

func TestDecidePOST(t *testing.T) {
	cfg := testConfig(t, config.MapStore{
		config.KeyNewService: "http://new/svc",
		config.KeyPOST:       "GetInventory|RP, SubmitOrder|RN",
	})

	tests := []struct {
		name string
		body string
		want config.Mode
	}{
		{
			name: "known request type",
			body: "<root><requests><SubmitOrder/></requests></root>",
			want: config.RouteNew,
		},
		{
			name: "first match in document order",
			body: "<root><requests><GetInventory/><SubmitOrder/></requests></root>",
			want: config.RunParallel,
		},
		{
			name: "unknown siblings skipped",
			body: "<root><requests><Heartbeat/><SubmitOrder/></requests></root>",
			want: config.RouteNew,
		},
		{
			name: "local name case-insensitive",
			body: "<root><requests><GETINVENTORY/></requests></root>",
			want: config.RunParallel,
		},
		{
			name: "requests element case-insensitive",
			body: "<root><REQUESTS><SubmitOrder/></REQUESTS></root>",
			want: config.RouteNew,
		},
		{
			name: "namespace ignored",
			body: `<root xmlns:n="urn:x"><requests><n:SubmitOrder xmlns:n="urn:x"/></requests></root>`,
			want: config.RouteNew,
		},
		{
			name: "no known children",
			body: "<root><requests><Heartbeat/></requests></root>",
			want: config.RouteOld,
		},
		{
			name: "empty requests element",
			body: "<root><requests></requests></root>",
			want: config.RouteOld,
		},
		{
			name: "requests element absent",
			body: "<root><other><SubmitOrder/></other></root>",
			want: config.RouteOld,
		},
		{
			name: "request type nested too deep",
			body: "<root><requests><batch><SubmitOrder/></batch></requests></root>",
			want: config.RouteOld,
		},
		{
			name: "request type at root level",
			body: "<SubmitOrder/>",
			want: config.RouteOld,
		},
		{
			name: "malformed XML",
			body: "<root><requests><SubmitOrder/></requests>",
			want: config.RouteOld,
		},
		{
			name: "not XML at all",
			body: `{"SubmitOrder": true}`,
			want: config.RouteOld,
		},
		{
			name: "malformed tail rejects early match",
			body: "<root><requests><SubmitOrder/></requests></root><",
			want: config.RouteOld,
		},
		{
			name: "only first requests element considered",
			body: "<root><requests><Heartbeat/></requests><requests><SubmitOrder/></requests></root>",
			want: config.RouteOld,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide("POST", []byte(tt.body), cfg); got != tt.want {
				t.Errorf("Decide = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecidePOSTEmptyBody(t *testing.T) {
	cfg := testConfig(t, config.MapStore{
		config.KeyNewService: "http://new/svc",
		config.KeyPOST:       "Foo|RN",
	})

	if got := Decide("POST", nil, cfg); got != config.RouteOld {
		t.Errorf("nil body = %v, want RO", got)
	}
	if got := Decide("POST", []byte{}, cfg); got != config.RouteOld {
		t.Errorf("empty body = %v, want RO", got)
	}
}

func TestDecidePOSTNoModesConfigured(t *testing.T) {
	cfg := testConfig(t, config.MapStore{})

	got := Decide("POST", []byte("<root><requests><Foo/></requests></root>"), cfg)
	if got != config.RouteOld {
		t.Errorf("no POST modes = %v, want RO", got)
	}
}
