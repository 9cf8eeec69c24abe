package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/tinylink/internal/entity"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, healthResponse{OK: true, Version: healthVersion})
}

type linkUseCase interface {
	CreateLink(ctx context.Context, target, code string) (*entity.Link, error)
	ListLinks(ctx context.Context) ([]entity.Link, error)
	GetLinkStats(ctx context.Context, code string) (*entity.Link, error)
	DeleteLink(ctx context.Context, code string) error
	ResolveAndTrack(ctx context.Context, code string) (*entity.Link, error)
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate) *linkHandler {
	return &linkHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func logError(r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.useCase.CreateLink(r.Context(), req.Target, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidInputResponse(err))
		case errors.Is(err, entity.ErrCodeExists):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, codeExistsResponse)
		default:
			logError(r, err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.useCase.ListLinks(r.Context())
	if err != nil {
		logError(r, err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkListResponse(links))
}

func (h *linkHandler) getLinkStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.useCase.GetLinkStats(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidInputResponse(err))
		case errors.Is(err, entity.ErrLinkNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
		default:
			logError(r, err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.useCase.DeleteLink(r.Context(), code); err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidInputResponse(err))
		case errors.Is(err, entity.ErrLinkNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, linkNotFoundResponse)
		default:
			logError(r, err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// redirect is the public endpoint. Its error bodies are plain text and never
// describe why a code was rejected.
func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.useCase.ResolveAndTrack(r.Context(), code)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.PlainText(w, r, redirectNotFoundBody)
			return
		}

		logError(r, err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, redirectServerErrorBody)
		return
	}

	http.Redirect(w, r, link.Target, http.StatusFound)
}
