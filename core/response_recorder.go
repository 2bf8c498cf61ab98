package core

import (
	"net/http"
	"time"
)

// ResponseRecorder captures the status and size of a response. The recorder
// prerouter installs one at the top of the chain so later middlewares can
// read the outcome.
type ResponseRecorder struct {
	http.ResponseWriter
	Status       int
	WroteHeader  bool
	BytesWritten int64
	StartTime    time.Time
}

func (r *ResponseRecorder) WriteHeader(status int) {
	if !r.WroteHeader {
		r.Status = status
		r.WroteHeader = true
		r.ResponseWriter.WriteHeader(status)
	}
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	if !r.WroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.BytesWritten += int64(n)
	return n, err
}

// Duration is the time elapsed since StartTime.
func (r *ResponseRecorder) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *ResponseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
