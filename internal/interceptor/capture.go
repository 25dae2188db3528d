package interceptor

import (
	"bytes"
	"net/http"
)

// CaptureWriter wraps an http.ResponseWriter and tees every byte written to
// the client into an in-memory buffer. Writes pass through immediately; the
// captured copy never alters what the client receives.
type CaptureWriter struct {
	http.ResponseWriter
	buf           bytes.Buffer
	statusCode    int
	headerWritten bool
}

// NewCaptureWriter creates a CaptureWriter wrapping w.
func NewCaptureWriter(w http.ResponseWriter) *CaptureWriter {
	return &CaptureWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code and passes through.
func (cw *CaptureWriter) WriteHeader(code int) {
	if !cw.headerWritten {
		cw.statusCode = code
		cw.headerWritten = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

// Write buffers a copy of b and passes it through.
func (cw *CaptureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Captured returns all bytes written to the client so far.
func (cw *CaptureWriter) Captured() []byte {
	return cw.buf.Bytes()
}

// StatusCode returns the captured status code.
func (cw *CaptureWriter) StatusCode() int {
	return cw.statusCode
}

// Flush implements http.Flusher.
func (cw *CaptureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
