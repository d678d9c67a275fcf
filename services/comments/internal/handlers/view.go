package handlers

import (
	"net/http"
	"strings"

	"github.com/example/comment-widget/internal/platform/api"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

type sortRequest struct {
	Field string `json:"field"`
}

type viewResponse struct {
	Sort          thread.SortOption `json:"sort"`
	FavoritesOnly bool              `json:"favorites_only"`
}

// SetSort handles PUT /v1/view/sort
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	field, ok := thread.ParseSortField(strings.ToLower(strings.TrimSpace(req.Field)))
	if !ok {
		api.BadRequest(w, r, "INVALID_SORT", "unknown sort field", map[string]any{"field": req.Field})
		return
	}

	opt := h.m.SetSortOption(field)
	api.WriteJSON(w, http.StatusOK, viewResponse{Sort: opt, FavoritesOnly: h.m.IsFavoritesOnly()})
}

// ToggleFavorites handles POST /v1/view/favorites
func (h *Handlers) ToggleFavorites(w http.ResponseWriter, _ *http.Request) {
	only := h.m.ToggleShowFavorites()
	api.WriteJSON(w, http.StatusOK, viewResponse{Sort: h.m.SortOption(), FavoritesOnly: only})
}
