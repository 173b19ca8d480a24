package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"socialFeed/internal/authctx"
	"socialFeed/internal/models"
	"socialFeed/internal/service"
)

const maxBodyBytes = 1 << 20

type CreatePostRequest struct {
	Content  string `json:"content" validate:"max=5000"`
	ImageRef string `json:"imageUrl" validate:"max=2048"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"max=1000"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (h *Handlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, "Страница не найдена", http.StatusNotFound)
		return
	}

	WriteSuccess(w, map[string]string{"message": "socialFeed API"}, http.StatusOK)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Cfg != nil && h.Cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Cfg.StoreTimeout)
		defer cancel()
	}

	if err := h.PostRepo.Ping(ctx); err != nil {
		h.Logger.Warn("хранилище не отвечает", "error", err)
		WriteSuccess(w, HealthResponse{Status: "degraded", Store: "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	WriteSuccess(w, HealthResponse{Status: "ok", Store: "ok"}, http.StatusOK)
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	WriteSuccess(w, h.Projector.Project(r.Context(), posts...), http.StatusOK)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := authctx.IdentityFrom(r.Context())
	if !ok {
		h.handleServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req CreatePostRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), identity, service.CreatePostRequest{
		Content:  req.Content,
		ImageRef: req.ImageRef,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writePost(w, r, post, http.StatusCreated)
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, ok := authctx.IdentityFrom(r.Context())
	if !ok {
		h.handleServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	post, err := h.PostService.ToggleLike(r.Context(), identity, mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writePost(w, r, post, http.StatusOK)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := authctx.IdentityFrom(r.Context())
	if !ok {
		h.handleServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req AddCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.PostService.AddComment(r.Context(), identity, mux.Vars(r)["id"], req.Text)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writePost(w, r, post, http.StatusOK)
}

func (h *Handlers) writePost(w http.ResponseWriter, r *http.Request, post *models.Post, status int) {
	WriteSuccess(w, h.Projector.Project(r.Context(), post)[0], status)
}

func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return false
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}
