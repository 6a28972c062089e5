package activity

import (
	"log/slog"

	"activityboard/internal/activity/handler"
	"activityboard/internal/activity/service"
)

// Service exposes registry reads and participant mutations.
type Service = service.Service

// Handler wires HTTP endpoints to the activity service.
type Handler = handler.Handler

// NewService constructs the activity service over a store.
func NewService(store service.Store, opts ...service.Option) (*Service, error) {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for the public activity routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
