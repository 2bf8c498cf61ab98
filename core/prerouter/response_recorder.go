package prerouter

import (
	"net/http"
	"time"

	"github.com/prankvz/sentinel/core"
)

// Recorder installs the shared core.ResponseRecorder. It must be the
// outermost prerouter so RequestLog and Metrics can read the final status.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (rc *Recorder) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(*core.ResponseRecorder); ok {
			next.ServeHTTP(w, r)
			return
		}
		recorder := &core.ResponseRecorder{
			ResponseWriter: w,
			Status:         http.StatusOK,
			StartTime:      time.Now(),
		}
		next.ServeHTTP(recorder, r)
	})
}
