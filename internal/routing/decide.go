package routing

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/http"
	"strings"

	"github.com/wudi/reqrouter/internal/config"
	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// Decide returns the routing mode for a request. It is a pure function of
// the method, the buffered body bytes, and the config snapshot; every
// failure path falls back to RouteOld.
func Decide(method string, body []byte, cfg *config.RoutingConfig) config.Mode {
	if cfg == nil || !cfg.Valid {
		return config.RouteOld
	}

	if strings.EqualFold(method, http.MethodGet) {
		return cfg.GETMode
	}
	if !strings.EqualFold(method, http.MethodPost) {
		return config.RouteOld
	}

	if len(cfg.POSTModes) == 0 {
		return config.RouteOld
	}
	if len(body) == 0 {
		logging.Info("POST request has no body, passing to legacy handler")
		return config.RouteOld
	}

	name, ok := firstKnownRequestType(body, cfg)
	if !ok {
		return config.RouteOld
	}

	mode, _ := cfg.PostMode(name)
	return mode
}

// firstKnownRequestType walks the direct children of the first root/requests
// element in document order and returns the local name of the first child
// with a configured mode. The whole document is tokenized so a malformed
// body is rejected even when it contains an early match. Local names are
// matched case-insensitively and namespaces are ignored.
func firstKnownRequestType(body []byte, cfg *config.RoutingConfig) (string, bool) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		match         string
		found         bool
		depth         int
		inRequests    bool
		requestsDone  bool
		requestsDepth int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Error("failed to parse POST body as XML", zap.Error(err))
			return "", false
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 2 && !requestsDone && !inRequests &&
				strings.EqualFold(t.Name.Local, "requests"):
				inRequests = true
				requestsDepth = depth
			case inRequests && !found && depth == requestsDepth+1:
				if _, ok := cfg.PostMode(t.Name.Local); ok {
					match = t.Name.Local
					found = true
				}
			}
		case xml.EndElement:
			if inRequests && depth == requestsDepth {
				inRequests = false
				requestsDone = true
			}
			depth--
		}
	}

	return match, found
}
