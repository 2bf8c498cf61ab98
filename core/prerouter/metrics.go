package prerouter

import (
	"net/http"
	"strconv"

	"github.com/prankvz/sentinel/core"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricName          = "http_server_requests_total"
	metricHelp          = "Total number of HTTP requests handled by the server, labeled by status code."
	statusCodeLabelName = "code"
)

// Metrics counts requests by response status. It reads the status from the
// core.ResponseRecorder installed by Recorder.
type Metrics struct {
	app           *core.App
	requestsTotal *prometheus.CounterVec
}

// NewMetrics registers http_server_requests_total with reg.
func NewMetrics(app *core.App, reg prometheus.Registerer) (*Metrics, error) {
	counterVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricName,
			Help: metricHelp,
		},
		[]string{statusCodeLabelName},
	)
	if err := reg.Register(counterVec); err != nil {
		return nil, err
	}
	return &Metrics{
		app:           app,
		requestsTotal: counterVec,
	}, nil
}

func (m *Metrics) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.app.Config().Metrics.Activated {
			next.ServeHTTP(w, r)
			return
		}

		rec, ok := w.(*core.ResponseRecorder)
		if !ok {
			m.app.Logger().Error("metrics: expected core.ResponseRecorder but got different type")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(rec, r)

		m.requestsTotal.WithLabelValues(strconv.Itoa(rec.Status)).Inc()
	})
}
