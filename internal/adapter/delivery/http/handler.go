package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type linkUseCase interface {
	CreateLink(ctx context.Context, ownerID, rawURL string) (*entity.Link, error)
	GetLink(ctx context.Context, ownerID, id string) (*entity.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error)
	ModifyLink(ctx context.Context, ownerID, id, rawURL string) (*entity.Link, error)
	RemoveLink(ctx context.Context, ownerID, id string) error
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &linkHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// decodeRequest renders a 400 and returns false when the body is missing, malformed or invalid.
func (h *linkHandler) decodeRequest(w http.ResponseWriter, r *http.Request, req *linkRequest) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return false
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

// renderError maps use case errors onto responses; anything unexpected is logged and hidden.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidDestinationURLResponse)
	case errors.Is(err, entity.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, linkNotFoundResponse)
	case errors.Is(err, entity.ErrInvalidOwner):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, unauthorizedResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	link, err := h.useCase.CreateLink(r.Context(), ownerIDFromContext(r.Context()), req.DestinationURL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/links/"+link.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.useCase.ListLinks(r.Context(), ownerIDFromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponses(links))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	link, err := h.useCase.GetLink(r.Context(), ownerIDFromContext(r.Context()), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) getLinkImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	link, err := h.useCase.GetLink(r.Context(), ownerIDFromContext(r.Context()), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(link.EncodedImage)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(link.EncodedImage); err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
	}
}

func (h *linkHandler) modifyLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")

	link, err := h.useCase.ModifyLink(r.Context(), ownerIDFromContext(r.Context()), id, req.DestinationURL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) removeLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.useCase.RemoveLink(r.Context(), ownerIDFromContext(r.Context()), id); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
