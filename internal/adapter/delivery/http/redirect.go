package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

// scanRecorder is the only store capability the redirect path needs.
type scanRecorder interface {
	RecordScan(ctx context.Context, id string) (*entity.Link, error)
}

type redirectHandler struct {
	scans scanRecorder
}

func newRedirectHandler(scans scanRecorder) *redirectHandler {
	return &redirectHandler{scans: scans}
}

// redirect counts the scan and sends the visitor to the destination observed by that same write.
func (h *redirectHandler) redirect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	link, err := h.scans.RecordScan(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link.DestinationURL, http.StatusFound)
}
