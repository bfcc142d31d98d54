package transport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telefetch/internal/logging"
)

const maxUpdateBytes = 1 << 20

// UpdateFunc handles one inbound update.
type UpdateFunc func(ctx context.Context, update Update)

// NewWebhookRouter builds the HTTP surface Telegram calls back into. The bot
// token doubles as the webhook path secret, so requests with the wrong path
// get a 404. GET / answers health probes.
func NewWebhookRouter(token string, handle UpdateFunc, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "OK")
	})

	r.Post("/webhook/{token}", func(w http.ResponseWriter, req *http.Request) {
		supplied := chi.URLParam(req, "token")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			http.NotFound(w, req)
			return
		}
		var update Update
		if err := json.NewDecoder(io.LimitReader(req.Body, maxUpdateBytes)).Decode(&update); err != nil {
			logger.Warn("discarding malformed webhook payload", logging.Error(err))
			// Answer 200 anyway so Telegram does not redeliver garbage.
			w.WriteHeader(http.StatusOK)
			return
		}
		handle(req.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	return r
}
