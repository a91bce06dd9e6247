// Package httpapi exposes the transfer gateway over HTTP. Routing and
// middleware follow chi conventions; owner-scoped routes sit behind bearer
// token auth while download is gated by the reference plus credential only.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/encryptshare/encryptshare/internal/logging"
	"github.com/encryptshare/encryptshare/internal/server/services"
)

// uploadFormOverhead covers multipart boundaries and metadata fields on top
// of the blob itself when bounding the request body.
const uploadFormOverhead = 64 << 10

// NewRouter builds the HTTP handler tree.
//
// Public routes:
//
//	GET  /ping              liveness probe
//	GET  /metrics           Prometheus metrics
//	GET  /download/{id}     one-time download, verifier via header
//
// Owner routes (bearer token):
//
//	POST /                  upload a sealed blob
//	GET  /my-files          transfer history
//	POST /send              re-fire the notification email
func NewRouter(svc *services.TransferService, logger logging.Logger, secretKey []byte, maxUploadBytes int64) http.Handler {
	h := &handler{svc: svc, logger: logger.With("module", "httpapi")}

	r := chi.NewRouter()
	r.Use(Metrics())

	r.Get("/ping", h.ping)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/download/{id}", h.download)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(secretKey, logger))

		r.With(maxBytes(maxUploadBytes+uploadFormOverhead)).Post("/", h.upload)
		r.Get("/my-files", h.myFiles)
		r.Post("/send", h.send)
	})

	return r
}

// maxBytes rejects request bodies past the given limit before the handler
// reads them.
func maxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
