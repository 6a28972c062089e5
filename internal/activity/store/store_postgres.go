package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"activityboard/internal/activity/models"
	"activityboard/pkg/platform/sentinel"
	txcontext "activityboard/pkg/platform/tx"
)

// Schema is applied by Migrate. Participant order is the insertion order of
// the BIGSERIAL id.
const Schema = `
CREATE TABLE IF NOT EXISTS activities (
	position         BIGSERIAL,
	name             TEXT PRIMARY KEY,
	description      TEXT NOT NULL,
	schedule         TEXT NOT NULL,
	max_participants INTEGER NOT NULL CHECK (max_participants >= 0)
);
CREATE TABLE IF NOT EXISTS activity_participants (
	id            BIGSERIAL PRIMARY KEY,
	activity_name TEXT NOT NULL REFERENCES activities(name),
	email         TEXT NOT NULL,
	UNIQUE (activity_name, email)
);`

// Postgres persists the registry in two tables. The unique constraint on
// (activity_name, email) keeps signups free of duplicates under concurrency.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate creates the tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate activity schema: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Activity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT name, description, schedule, max_participants FROM activities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []*models.Activity{}
	byName := make(map[string]*models.Activity)
	for rows.Next() {
		a := &models.Activity{Participants: []string{}}
		if err := rows.Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
		byName[a.Name] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	prow, err := s.execer(ctx).QueryContext(ctx,
		`SELECT activity_name, email FROM activity_participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer prow.Close()
	for prow.Next() {
		var name, email string
		if err := prow.Scan(&name, &email); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if a, ok := byName[name]; ok {
			a.Participants = append(a.Participants, email)
		}
	}
	if err := prow.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Activity, error) {
	a := &models.Activity{Participants: []string{}}
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT name, description, schedule, max_participants FROM activities WHERE name = $1`, name).
		Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query activity %q: %w", name, err)
	}

	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT email FROM activity_participants WHERE activity_name = $1 ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("query participants of %q: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		a.Participants = append(a.Participants, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants of %q: %w", name, err)
	}
	return a, nil
}

func (s *Postgres) exists(ctx context.Context, name string) error {
	var found bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM activities WHERE name = $1)`, name).Scan(&found)
	if err != nil {
		return fmt.Errorf("check activity %q: %w", name, err)
	}
	if !found {
		return fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) AddParticipant(ctx context.Context, name, email string) error {
	if err := s.exists(ctx, name); err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO activity_participants (activity_name, email) VALUES ($1, $2)
		 ON CONFLICT (activity_name, email) DO NOTHING`, name, email)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrConflict)
	}
	return nil
}

func (s *Postgres) RemoveParticipant(ctx context.Context, name, email string) error {
	if err := s.exists(ctx, name); err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM activity_participants WHERE activity_name = $1 AND email = $2`, name, email)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrInvalidState)
	}
	return nil
}

// Seed inserts missing activities and their initial participants in one
// transaction.
func (s *Postgres) Seed(ctx context.Context, activities []*models.Activity) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		for _, a := range activities {
			res, err := s.execer(ctx).ExecContext(ctx,
				`INSERT INTO activities (name, description, schedule, max_participants)
				 VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`,
				a.Name, a.Description, a.Schedule, a.MaxParticipants)
			if err != nil {
				return fmt.Errorf("seed activity %q: %w", a.Name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("seed activity %q: %w", a.Name, err)
			}
			if n == 0 {
				continue
			}
			for _, email := range a.Participants {
				if _, err := s.execer(ctx).ExecContext(ctx,
					`INSERT INTO activity_participants (activity_name, email) VALUES ($1, $2)`,
					a.Name, email); err != nil {
					return fmt.Errorf("seed participant %q of %q: %w", email, a.Name, err)
				}
			}
		}
		return nil
	})
}

func (s *Postgres) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return nil
}
