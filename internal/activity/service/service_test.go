package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"activityboard/internal/activity/metrics"
	"activityboard/internal/activity/models"
	"activityboard/internal/activity/store"
	dErrors "activityboard/pkg/domain-errors"
	audit "activityboard/pkg/platform/audit"
	auditmemory "activityboard/pkg/platform/audit/store/memory"
	"activityboard/pkg/requestcontext"
)

// =============================================================================
// Activity Service Test Suite
// =============================================================================
// Runs against the in-memory store; backend specifics are covered by the
// store package.

type ActivityServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	audit   *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestActivityServiceSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceSuite))
}

func (s *ActivityServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.Require().NoError(s.store.Seed(s.ctx, []*models.Activity{
		{Name: "Chess Club", Description: "Strategy", Schedule: "Fridays", MaxParticipants: 12},
		{Name: "Gym Class", Description: "Sports", Schedule: "Mondays", MaxParticipants: 30,
			Participants: []string{"john@mergington.edu"}},
	}))
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(s.store, WithAuditor(s.audit), WithMetrics(s.metrics))
	s.Require().NoError(err)
}

func (s *ActivityServiceSuite) participants(name string) []string {
	a, err := s.store.FindByName(s.ctx, name)
	s.Require().NoError(err)
	return a.Participants
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ActivityServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "activity store is required")
	})

	s.Run("optional collaborators may be omitted", func() {
		svc, err := New(s.store)
		s.Require().NoError(err)
		msg, err := svc.Signup(s.ctx, "Chess Club", "solo@x.edu")
		s.NoError(err)
		s.Equal("Signed up solo@x.edu for Chess Club", msg)
	})
}

// =============================================================================
// List Tests
// =============================================================================

func (s *ActivityServiceSuite) TestList() {
	activities, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 2)
	s.Equal("Chess Club", activities[0].Name)
	s.Equal(12, activities[0].MaxParticipants)
}

// =============================================================================
// Signup Tests
// =============================================================================

func (s *ActivityServiceSuite) TestSignup() {
	s.Run("adds email exactly once and confirms", func() {
		msg, err := s.service.Signup(s.ctx, "Chess Club", "a@x.edu")
		s.Require().NoError(err)
		s.Equal("Signed up a@x.edu for Chess Club", msg)
		s.Equal([]string{"a@x.edu"}, s.participants("Chess Club"))
	})

	s.Run("duplicate signup is a conflict and count grows by one only", func() {
		_, err := s.service.Signup(s.ctx, "Chess Club", "a@x.edu")
		s.True(dErrors.Is(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "already signed up")
		s.Len(s.participants("Chess Club"), 1)
	})

	s.Run("unknown activity is not found", func() {
		_, err := s.service.Signup(s.ctx, "Knitting", "a@x.edu")
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "not found")
	})

	s.Run("email is stored exactly as given", func() {
		msg, err := s.service.Signup(s.ctx, "Chess Club", "  b@x.edu ")
		s.Require().NoError(err)
		s.Equal("Signed up   b@x.edu  for Chess Club", msg)
		s.Contains(s.participants("Chess Club"), "  b@x.edu ")
	})

	s.Run("empty email on a known activity is accepted", func() {
		_, err := s.service.Signup(s.ctx, "Chess Club", "")
		s.NoError(err)
	})

	s.Run("unknown activity is not found regardless of email", func() {
		for _, email := range []string{"", "   "} {
			_, err := s.service.Signup(s.ctx, "Knitting", email)
			s.True(dErrors.Is(err, dErrors.CodeNotFound))
		}
	})

	s.Run("capacity is not enforced", func() {
		for i := range 15 {
			_, err := s.service.Signup(s.ctx, "Chess Club", fmt.Sprintf("cap%d@x.edu", i))
			s.Require().NoError(err)
		}
		s.Greater(len(s.participants("Chess Club")), 12)
	})
}

// =============================================================================
// Unregister Tests
// =============================================================================

func (s *ActivityServiceSuite) TestUnregister() {
	s.Run("removes present email and confirms", func() {
		msg, err := s.service.Unregister(s.ctx, "Gym Class", "john@mergington.edu")
		s.Require().NoError(err)
		s.Equal("Unregistered john@mergington.edu from Gym Class", msg)
		s.Empty(s.participants("Gym Class"))
	})

	s.Run("absent email is a conflict and leaves list unchanged", func() {
		_, err := s.service.Unregister(s.ctx, "Gym Class", "john@mergington.edu")
		s.True(dErrors.Is(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "not registered")
		s.Empty(s.participants("Gym Class"))
	})

	s.Run("unknown activity is not found regardless of email", func() {
		for _, email := range []string{"a@x.edu", "john@mergington.edu"} {
			_, err := s.service.Unregister(s.ctx, "Knitting", email)
			s.True(dErrors.Is(err, dErrors.CodeNotFound))
		}
	})
}

func (s *ActivityServiceSuite) TestRoundTrip() {
	before := s.participants("Gym Class")

	_, err := s.service.Signup(s.ctx, "Gym Class", "round@x.edu")
	s.Require().NoError(err)
	_, err = s.service.Unregister(s.ctx, "Gym Class", "round@x.edu")
	s.Require().NoError(err)

	s.Equal(before, s.participants("Gym Class"))
}

// =============================================================================
// Audit and Metrics Tests
// =============================================================================

func (s *ActivityServiceSuite) TestAuditEvents() {
	fixed := time.Date(2026, 9, 4, 15, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.9", "test-agent")

	_, err := s.service.Signup(ctx, "Chess Club", "a@x.edu")
	s.Require().NoError(err)
	_, err = s.service.Signup(ctx, "Chess Club", "a@x.edu")
	s.Require().Error(err)
	_, err = s.service.Unregister(ctx, "Chess Club", "a@x.edu")
	s.Require().NoError(err)

	events, err := s.audit.ListByActivity(s.ctx, "Chess Club")
	s.Require().NoError(err)
	s.Require().Len(events, 2, "rejected requests are not audited")
	s.Equal(audit.EventActivitySignup, events[0].Action)
	s.Equal(audit.EventActivityUnregistered, events[1].Action)
	s.Equal(fixed, events[0].Timestamp)
	s.Equal("req-42", events[0].RequestID)
	s.Equal("10.0.0.9", events[0].ClientIP)
	s.Equal("a@x.edu", events[0].Email)
}

func (s *ActivityServiceSuite) TestAuditFailureDoesNotFailSignup() {
	svc, err := New(s.store, WithAuditor(failingPublisher{}))
	s.Require().NoError(err)

	_, err = svc.Signup(s.ctx, "Chess Club", "a@x.edu")
	s.NoError(err)
	s.Equal([]string{"a@x.edu"}, s.participants("Chess Club"))
}

func (s *ActivityServiceSuite) TestMetrics() {
	_, _ = s.service.Signup(s.ctx, "Gym Class", "a@x.edu")
	_, _ = s.service.Signup(s.ctx, "Gym Class", "a@x.edu")
	_, _ = s.service.Unregister(s.ctx, "Knitting", "a@x.edu")

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Signups))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Rejections.WithLabelValues(opSignup, metrics.ReasonAlreadySigned)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Rejections.WithLabelValues(opUnregister, metrics.ReasonNotFound)))
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Participants.WithLabelValues("Gym Class")))
}

func (s *ActivityServiceSuite) TestRecordParticipantCounts() {
	s.Require().NoError(s.service.RecordParticipantCounts(s.ctx))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.Participants.WithLabelValues("Chess Club")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Participants.WithLabelValues("Gym Class")))
}

// =============================================================================
// Store Failure Tests
// =============================================================================

func (s *ActivityServiceSuite) TestStoreFailuresAreInternal() {
	svc, err := New(brokenStore{})
	s.Require().NoError(err)

	_, err = svc.List(s.ctx)
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	_, err = svc.Signup(s.ctx, "Chess Club", "a@x.edu")
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	_, err = svc.Unregister(s.ctx, "Chess Club", "a@x.edu")
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, audit.Event) error {
	return errors.New("kafka unavailable")
}

type brokenStore struct{}

var errBroken = errors.New("connection refused")

func (brokenStore) List(context.Context) ([]*models.Activity, error) { return nil, errBroken }
func (brokenStore) FindByName(context.Context, string) (*models.Activity, error) {
	return nil, errBroken
}
func (brokenStore) AddParticipant(context.Context, string, string) error    { return errBroken }
func (brokenStore) RemoveParticipant(context.Context, string, string) error { return errBroken }
