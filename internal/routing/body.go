package routing

import (
	"bytes"
	"io"
	"net/http"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// BufferBody reads the request body fully into memory and replaces it on the
// request so downstream readers see the original bytes from offset zero.
// Returns nil when the body is absent, empty, or unreadable; it never panics.
func BufferBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		logging.Error("failed to read request body", zap.Error(err))
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return nil
	}
	return body
}
