package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"activityboard/internal/activity/metrics"
	"activityboard/internal/activity/models"
	dErrors "activityboard/pkg/domain-errors"
	audit "activityboard/pkg/platform/audit"
	"activityboard/pkg/platform/sentinel"
	"activityboard/pkg/requestcontext"
)

// Client-facing messages. Callers match on the "not found", "already signed
// up" and "not registered" fragments.
const (
	msgActivityNotFound = "Activity not found"
	msgAlreadySignedUp  = "Student is already signed up"
	msgNotRegistered    = "Student is not registered for this activity"
)

const (
	opList       = "list"
	opSignup     = "signup"
	opUnregister = "unregister"
)

// Store is the persistence contract the service depends on.
type Store interface {
	List(ctx context.Context) ([]*models.Activity, error)
	FindByName(ctx context.Context, name string) (*models.Activity, error)
	AddParticipant(ctx context.Context, name, email string) error
	RemoveParticipant(ctx context.Context, name, email string) error
}

// Service orchestrates registry reads and participant mutations. It owns
// translation of store facts into domain errors.
type Service struct {
	store   Store
	auditor audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures optional collaborators.
type Option func(*Service)

// WithAuditor publishes an audit event after each successful mutation.
func WithAuditor(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs the service. A store is required.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("activity store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("activityboard/activity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns every activity in registry order.
func (s *Service) List(ctx context.Context) ([]*models.Activity, error) {
	ctx, span := s.tracer.Start(ctx, "activity.List")
	defer span.End()
	defer s.observe(opList, time.Now())

	activities, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activities")
	}
	return activities, nil
}

// Signup adds email to the named activity and returns a confirmation. The
// email is stored exactly as given; only the activity's existence is checked.
func (s *Service) Signup(ctx context.Context, name, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "activity.Signup",
		trace.WithAttributes(attribute.String("activity.name", name)))
	defer span.End()
	defer s.observe(opSignup, time.Now())

	if err := s.store.AddParticipant(ctx, name, email); err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			s.reject(opSignup, metrics.ReasonNotFound)
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, msgActivityNotFound)
		case errors.Is(err, sentinel.ErrConflict):
			s.reject(opSignup, metrics.ReasonAlreadySigned)
			return "", dErrors.Wrap(err, dErrors.CodeConflict, msgAlreadySignedUp)
		default:
			span.SetStatus(codes.Error, "signup failed")
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign up")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementSignups()
	}
	s.refreshGauge(ctx, name)
	s.emit(ctx, audit.EventActivitySignup, name, email)

	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the named activity and returns a confirmation.
func (s *Service) Unregister(ctx context.Context, name, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "activity.Unregister",
		trace.WithAttributes(attribute.String("activity.name", name)))
	defer span.End()
	defer s.observe(opUnregister, time.Now())

	if err := s.store.RemoveParticipant(ctx, name, email); err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			s.reject(opUnregister, metrics.ReasonNotFound)
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, msgActivityNotFound)
		case errors.Is(err, sentinel.ErrInvalidState):
			s.reject(opUnregister, metrics.ReasonNotRegistered)
			return "", dErrors.Wrap(err, dErrors.CodeConflict, msgNotRegistered)
		default:
			span.SetStatus(codes.Error, "unregister failed")
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to unregister")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementUnregistrations()
	}
	s.refreshGauge(ctx, name)
	s.emit(ctx, audit.EventActivityUnregistered, name, email)

	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

// emit publishes an audit event. Failures are logged and never fail the request.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, activity, email string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		Timestamp: requestcontext.Now(ctx),
		Activity:  activity,
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if err := s.auditor.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"request_id", event.RequestID,
			"action", string(action),
			"activity", activity,
			"error", err,
		)
	}
}

func (s *Service) refreshGauge(ctx context.Context, name string) {
	if s.metrics == nil {
		return
	}
	a, err := s.store.FindByName(ctx, name)
	if err != nil {
		return
	}
	s.metrics.SetParticipants(name, len(a.Participants))
}

func (s *Service) reject(op, reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejection(op, reason)
	}
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

// RecordParticipantCounts primes the participant gauge, typically after seeding.
func (s *Service) RecordParticipantCounts(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	activities, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range activities {
		s.metrics.SetParticipants(a.Name, len(a.Participants))
	}
	return nil
}
