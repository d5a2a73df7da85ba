package recoverer

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/qr-links/pkg/middleware"
)

// New returns a middleware that turns a panic in next into a 500 rendering resp as JSON.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func New(logger *slog.Logger, resp any) middleware.Middleware {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error(
						"something went wrong, panic occurred",
						slog.Group(op, slog.Any("err", err), slog.String("path", r.URL.Path)),
					)

					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, resp)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
