package prerouter

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prankvz/sentinel/core"
)

const logMessage = "http_request"

// cutStr limits string length by adding ellipsis if needed
func cutStr(str string, max int) string {
	if max > 0 && len(str) > max {
		return str[:max] + "..."
	}
	return str
}

var logType = slog.String("type", "request")

// RequestLog emits one record per request with length-capped fields.
type RequestLog struct {
	app *core.App
}

func NewRequestLog(app *core.App) *RequestLog {
	return &RequestLog{
		app: app,
	}
}

// Execute wraps the next handler with request logging. The status is read
// from the shared core.ResponseRecorder; without one a local recorder is used.
func (l *RequestLog) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cfg := l.app.Config()
		if !cfg.Log.Request.Activated {
			next.ServeHTTP(w, req)
			return
		}

		rec, ok := w.(*core.ResponseRecorder)
		if !ok {
			rec = &core.ResponseRecorder{
				ResponseWriter: w,
				Status:         http.StatusOK,
				StartTime:      time.Now(),
			}
		}

		next.ServeHTTP(rec, req)

		limits := cfg.Log.Request.Limits
		attrs := make([]any, 0, 12)
		attrs = append(attrs, logType)
		attrs = append(attrs, slog.String("method", strings.ToUpper(req.Method)))
		attrs = append(attrs, slog.String("uri", cutStr(req.URL.RequestURI(), limits.URILength)))
		attrs = append(attrs, slog.Int("status", rec.Status))
		attrs = append(attrs, slog.String("duration", rec.Duration().String()))
		attrs = append(attrs, slog.Int64("bytes", rec.BytesWritten))
		attrs = append(attrs, slog.String("remote_ip", cutStr(l.app.ClientIP(req), limits.RemoteIPLength)))
		attrs = append(attrs, slog.String("user_agent", cutStr(req.UserAgent(), limits.UserAgentLength)))
		attrs = append(attrs, slog.String("referer", cutStr(req.Referer(), limits.RefererLength)))
		attrs = append(attrs, slog.String("host", cutStr(req.Host, limits.RemoteIPLength)))
		attrs = append(attrs, slog.String("proto", req.Proto))
		attrs = append(attrs, slog.Int64("content_length", req.ContentLength))

		l.app.Logger().Info(logMessage, attrs...)
	})
}
