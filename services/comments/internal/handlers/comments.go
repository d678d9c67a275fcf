package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/comment-widget/internal/platform/api"
	"github.com/example/comment-widget/services/comments/internal/render"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

type createCommentRequest struct {
	Text     string `json:"text"`
	ParentID string `json:"parent_id,omitempty"`
}

type ratingRequest struct {
	Increment *bool `json:"increment"`
}

// commentView is a comment as the widget draws it.
type commentView struct {
	thread.Comment
	Locked  bool          `json:"locked"`
	Age     string        `json:"age"`
	ReplyTo string        `json:"reply_to,omitempty"`
	HTML    string        `json:"html"`
	Replies []commentView `json:"replies"`
}

type listResponse struct {
	Comments      []commentView     `json:"comments"`
	Count         int               `json:"count"`
	Sort          thread.SortOption `json:"sort"`
	FavoritesOnly bool              `json:"favorites_only"`
}

type countResponse struct {
	Count int `json:"count"`
}

// Handlers serves the comment widget API over one Manager.
type Handlers struct {
	m   *thread.Manager
	now func() time.Time
}

func New(m *thread.Manager) *Handlers {
	return &Handlers{m: m, now: time.Now}
}

// Register mounts every route on r.
func (h *Handlers) Register(r chi.Router) {
	r.Get("/v1/comments", h.ListComments)
	r.Post("/v1/comments", h.CreateComment)
	r.Get("/v1/comments/count", h.CountComments)
	r.Post("/v1/comments/{comment_id}/rating", h.RateComment)
	r.Post("/v1/comments/{comment_id}/favorite", h.FavoriteComment)
	r.Put("/v1/view/sort", h.SetSort)
	r.Post("/v1/view/favorites", h.ToggleFavorites)
}

// ListComments handles GET /v1/comments
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	forest := h.m.SortedComments()
	api.WriteJSON(w, http.StatusOK, listResponse{
		Comments:      h.views(forest, nil, now),
		Count:         h.m.CommentCount(),
		Sort:          h.m.SortOption(),
		FavoritesOnly: h.m.IsFavoritesOnly(),
	})
}

func (h *Handlers) views(forest []*thread.Comment, parent *thread.Comment, now time.Time) []commentView {
	out := make([]commentView, 0, len(forest))
	for _, c := range forest {
		v := commentView{
			Comment: *c,
			Locked:  h.m.IsLocked(c.ID),
			Age:     render.RelativeTime(now, c.Date),
			HTML:    render.EscapeText(c.Text),
			Replies: h.views(c.Replies, c, now),
		}
		v.Comment.Replies = nil
		if parent != nil {
			v.ReplyTo = render.ReplyPreview(parent.Author, parent.Text)
		}
		out = append(out, v)
	}
	return out
}

// CreateComment handles POST /v1/comments
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	c, outcome, err := h.m.AddComment(r.Context(), strings.TrimSpace(req.Text), strings.TrimSpace(req.ParentID))
	if writeOutcome(w, r, outcome, err) {
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// RateComment handles POST /v1/comments/{comment_id}/rating
func (h *Handlers) RateComment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "comment_id"))
	if id == "" {
		api.BadRequest(w, r, "MISSING_ID", "comment_id is required", nil)
		return
	}

	var req ratingRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Increment == nil {
		api.BadRequest(w, r, "MISSING_INCREMENT", "increment is required", nil)
		return
	}

	c, outcome, err := h.m.ChangeRating(r.Context(), id, *req.Increment)
	if writeOutcome(w, r, outcome, err) {
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// FavoriteComment handles POST /v1/comments/{comment_id}/favorite
func (h *Handlers) FavoriteComment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "comment_id"))
	if id == "" {
		api.BadRequest(w, r, "MISSING_ID", "comment_id is required", nil)
		return
	}

	c, outcome, err := h.m.ToggleFavorite(r.Context(), id)
	if writeOutcome(w, r, outcome, err) {
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// CountComments handles GET /v1/comments/count
func (h *Handlers) CountComments(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, countResponse{Count: h.m.CommentCount()})
}

// writeOutcome answers rejections and persistence failures. It reports
// true when the caller should write the success response.
func writeOutcome(w http.ResponseWriter, r *http.Request, outcome thread.Outcome, err error) bool {
	if err != nil {
		api.Internal(w, r)
		return false
	}
	switch outcome {
	case thread.Applied:
		return true
	case thread.RejectedEmpty:
		api.BadRequest(w, r, "EMPTY_TEXT", "text must not be empty", nil)
	case thread.RejectedTooLong:
		api.BadRequest(w, r, "TEXT_TOO_LONG", "text is too long", map[string]any{"max_length": thread.MaxTextLength})
	case thread.RejectedParentNotFound:
		api.NotFound(w, r, "PARENT_NOT_FOUND", "parent comment not found")
	case thread.RejectedNotFound:
		api.NotFound(w, r, "NOT_FOUND", "comment not found")
	case thread.RejectedAlreadyVoted:
		api.Conflict(w, r, "ALREADY_VOTED", "comment already rated", nil)
	default:
		api.Internal(w, r)
	}
	return false
}
