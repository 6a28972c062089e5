package store

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"activityboard/internal/activity/models"
	"activityboard/pkg/platform/sentinel"
)

// StoreSuite runs the same behavioural checks against every backend that can
// run in-process.
type StoreSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
	s.Require().NoError(s.store.Seed(s.ctx, []*models.Activity{
		{Name: "Chess Club", Description: "Strategy", Schedule: "Fridays", MaxParticipants: 12},
		{Name: "Gym Class", Description: "Sports", Schedule: "Mondays", MaxParticipants: 30,
			Participants: []string{"john@mergington.edu", "olivia@mergington.edu"}},
	}))
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() Store { return NewInMemory() }})
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() Store {
		mr := miniredis.RunT(t)
		return NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}})
}

func (s *StoreSuite) TestListPreservesSeedOrder() {
	activities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 2)
	s.Equal("Chess Club", activities[0].Name)
	s.Equal("Gym Class", activities[1].Name)
	s.Equal(12, activities[0].MaxParticipants)
	s.NotNil(activities[0].Participants)
	s.Empty(activities[0].Participants)
	s.Equal([]string{"john@mergington.edu", "olivia@mergington.edu"}, activities[1].Participants)
}

func (s *StoreSuite) TestFindByName() {
	s.Run("returns metadata and participants", func() {
		a, err := s.store.FindByName(s.ctx, "Gym Class")
		s.Require().NoError(err)
		s.Equal("Sports", a.Description)
		s.Equal("Mondays", a.Schedule)
		s.Len(a.Participants, 2)
	})

	s.Run("unknown activity is not found", func() {
		_, err := s.store.FindByName(s.ctx, "Knitting")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestAddParticipant() {
	s.Run("appends in signup order", func() {
		s.Require().NoError(s.store.AddParticipant(s.ctx, "Gym Class", "new@mergington.edu"))

		a, err := s.store.FindByName(s.ctx, "Gym Class")
		s.Require().NoError(err)
		s.Equal([]string{"john@mergington.edu", "olivia@mergington.edu", "new@mergington.edu"}, a.Participants)
	})

	s.Run("duplicate is a conflict and does not append", func() {
		err := s.store.AddParticipant(s.ctx, "Gym Class", "john@mergington.edu")
		s.ErrorIs(err, sentinel.ErrConflict)

		a, err := s.store.FindByName(s.ctx, "Gym Class")
		s.Require().NoError(err)
		s.Len(a.Participants, 3)
	})

	s.Run("unknown activity is not found", func() {
		err := s.store.AddParticipant(s.ctx, "Knitting", "a@x.edu")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("capacity is not enforced", func() {
		for _, email := range []string{"c1@x.edu", "c2@x.edu", "c3@x.edu"} {
			s.Require().NoError(s.store.AddParticipant(s.ctx, "Gym Class", email))
		}
	})
}

func (s *StoreSuite) TestRemoveParticipant() {
	s.Run("removes present email keeping order", func() {
		s.Require().NoError(s.store.RemoveParticipant(s.ctx, "Gym Class", "john@mergington.edu"))

		a, err := s.store.FindByName(s.ctx, "Gym Class")
		s.Require().NoError(err)
		s.Equal([]string{"olivia@mergington.edu"}, a.Participants)
	})

	s.Run("absent email is invalid state and leaves list unchanged", func() {
		err := s.store.RemoveParticipant(s.ctx, "Gym Class", "john@mergington.edu")
		s.ErrorIs(err, sentinel.ErrInvalidState)

		a, err := s.store.FindByName(s.ctx, "Gym Class")
		s.Require().NoError(err)
		s.Equal([]string{"olivia@mergington.edu"}, a.Participants)
	})

	s.Run("unknown activity is not found", func() {
		err := s.store.RemoveParticipant(s.ctx, "Knitting", "a@x.edu")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestRoundTripRestoresParticipants() {
	before, err := s.store.FindByName(s.ctx, "Chess Club")
	s.Require().NoError(err)

	s.Require().NoError(s.store.AddParticipant(s.ctx, "Chess Club", "a@x.edu"))
	s.Require().NoError(s.store.RemoveParticipant(s.ctx, "Chess Club", "a@x.edu"))

	after, err := s.store.FindByName(s.ctx, "Chess Club")
	s.Require().NoError(err)
	s.Equal(before.Participants, after.Participants)

	// Re-signup after removal is allowed.
	s.NoError(s.store.AddParticipant(s.ctx, "Chess Club", "a@x.edu"))
}

func (s *StoreSuite) TestSeedKeepsExistingState() {
	s.Require().NoError(s.store.AddParticipant(s.ctx, "Chess Club", "a@x.edu"))

	s.Require().NoError(s.store.Seed(s.ctx, []*models.Activity{
		{Name: "Chess Club", Description: "Replaced", MaxParticipants: 1},
		{Name: "Drama Club", Description: "Theater", MaxParticipants: 25},
	}))

	activities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 3)
	s.Equal("Strategy", activities[0].Description)
	s.Equal([]string{"a@x.edu"}, activities[0].Participants)
	s.Equal("Drama Club", activities[2].Name)
}

func (s *StoreSuite) TestReturnedActivitiesAreCopies() {
	a, err := s.store.FindByName(s.ctx, "Gym Class")
	s.Require().NoError(err)
	a.Participants = append(a.Participants, "ghost@x.edu")

	fresh, err := s.store.FindByName(s.ctx, "Gym Class")
	s.Require().NoError(err)
	s.NotContains(fresh.Participants, "ghost@x.edu")
}

func (s *StoreSuite) TestConcurrentDuplicateSignupsAddOnce() {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.AddParticipant(s.ctx, "Chess Club", "race@x.edu")
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, succeeded)

	a, err := s.store.FindByName(s.ctx, "Chess Club")
	s.Require().NoError(err)
	s.Equal([]string{"race@x.edu"}, a.Participants)
}

func (s *StoreSuite) TestNamesThatLookLikeKeySuffixesStayDistinct() {
	s.Require().NoError(s.store.Seed(s.ctx, []*models.Activity{
		{Name: "Chess Club:members", Description: "Lookalike", Schedule: "Sundays", MaxParticipants: 3},
		{Name: "Chess Club:participants", Description: "Lookalike", Schedule: "Sundays", MaxParticipants: 3},
	}))

	activities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(activities, 4)

	s.Require().NoError(s.store.AddParticipant(s.ctx, "Chess Club", "a@x.edu"))
	s.Require().NoError(s.store.AddParticipant(s.ctx, "Chess Club:members", "b@x.edu"))

	chess, err := s.store.FindByName(s.ctx, "Chess Club")
	s.Require().NoError(err)
	s.Equal([]string{"a@x.edu"}, chess.Participants)

	lookalike, err := s.store.FindByName(s.ctx, "Chess Club:members")
	s.Require().NoError(err)
	s.Equal("Lookalike", lookalike.Description)
	s.Equal([]string{"b@x.edu"}, lookalike.Participants)
}

func (s *StoreSuite) TestHealth() {
	s.NoError(s.store.Health(s.ctx))
}
