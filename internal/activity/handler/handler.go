package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"activityboard/internal/activity/models"
	dErrors "activityboard/pkg/domain-errors"
	"activityboard/pkg/platform/httputil"
	"activityboard/pkg/requestcontext"
)

// Service defines the interface for registry operations.
type Service interface {
	List(ctx context.Context) ([]*models.Activity, error)
	Signup(ctx context.Context, name, email string) (string, error)
	Unregister(ctx context.Context, name, email string) (string, error)
}

// Handler wires activity endpoints to the activity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an activity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts activity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activities", h.HandleList)
	r.Post("/activities/{name}/signup", h.HandleSignup)
	r.Post("/activities/{name}/unregister", h.HandleUnregister)
}

// HandleList handles GET /activities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activities, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activities",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromActivities(activities))
}

// HandleSignup handles POST /activities/{name}/signup?email=...
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "signup", h.service.Signup)
}

// HandleUnregister handles POST /activities/{name}/unregister?email=...
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unregister", h.service.Unregister)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, name, email string) (string, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := activityName(r)
	query := r.URL.Query()
	if !query.Has("email") {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email query parameter is required"))
		return
	}

	message, err := fn(ctx, name, query.Get("email"))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, op+" failed",
				"request_id", requestID,
				"activity", name,
				"error", err,
			)
		} else {
			h.logger.InfoContext(ctx, op+" rejected",
				"request_id", requestID,
				"activity", name,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, op+" succeeded",
		"request_id", requestID,
		"activity", name,
	)
	httputil.WriteMessage(w, message)
}

// activityName returns the decoded {name} path segment. chi matches against
// RawPath when the request carries one, so only then is the param still escaped.
func activityName(r *http.Request) string {
	param := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return param
	}
	if name, err := url.PathUnescape(param); err == nil {
		return name
	}
	return param
}
