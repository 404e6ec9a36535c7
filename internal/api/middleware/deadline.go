package middleware

import (
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Deadlines bounds each request's context by timeout. Multipart uploads get
// uploadTimeout instead, and their connection read and write deadlines are
// pushed out to match, since the server-wide ReadTimeout and WriteTimeout
// would otherwise cut a large body short.
func Deadlines(timeout, uploadTimeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		regular := middleware.Timeout(timeout)(next)
		upload := middleware.Timeout(uploadTimeout)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				regular.ServeHTTP(w, r)
				return
			}
			extendConnDeadlines(w, time.Now().Add(uploadTimeout))
			upload.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// extendConnDeadlines is best effort: writers that cannot reach the
// connection (recorders, HTTP/2 without support) keep the server defaults.
func extendConnDeadlines(w http.ResponseWriter, deadline time.Time) {
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(deadline)
	_ = rc.SetWriteDeadline(deadline)
}
