package interceptor

import (
	"io"
	"net/http"
	"strings"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// strippedResponseHeaders are dropped when mirroring an upstream response to
// the client.
var strippedResponseHeaders = map[string]struct{}{
	"Transfer-Encoding": {},
	"Server":            {},
	"X-Powered-By":      {},
}

// CopyResponse mirrors resp into w: status code, Content-Type, remaining
// headers, and body. Multi-valued headers are joined with a comma, matching
// the system this replaces even for headers whose grammar is not
// comma-joinable (such as Set-Cookie). Body read errors are logged and the
// partial body is sent as-is.
func CopyResponse(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Error("failed to read new service response body", zap.Error(err))
	}

	header := w.Header()
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		header.Set("Content-Type", ct)
	}
	for name, values := range resp.Header {
		canonical := http.CanonicalHeaderKey(name)
		if canonical == "Content-Type" {
			continue
		}
		if _, skip := strippedResponseHeaders[canonical]; skip {
			continue
		}
		header.Set(name, strings.Join(values, ","))
	}

	w.WriteHeader(resp.StatusCode)
	if len(body) > 0 {
		w.Write(body)
	}
}
