package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"activityboard/internal/activity/models"
	"activityboard/pkg/platform/sentinel"
)

// Redis key layout, where {id} is the unpadded base64url activity name:
//
//	activityboard:activities                 list of names in seed order
//	activityboard:activity:{id}              hash of metadata
//	activityboard:activity:{id}:participants list of emails in signup order
//	activityboard:activity:{id}:members      set of emails for membership checks
//
// The encoded name cannot contain ':' or braces, so keys of different
// activities never collide, and the hash tag keeps one activity's keys in the
// same cluster slot for the Lua scripts.
const redisKeyPrefix = "activityboard:"

// Script results.
const (
	scriptMissing = -1
	scriptNoop    = 0
	scriptApplied = 1
)

var addParticipantScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('SADD', KEYS[3], ARGV[1]) == 0 then return 0 end
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

var removeParticipantScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('SREM', KEYS[3], ARGV[1]) == 0 then return 0 end
redis.call('LREM', KEYS[2], 0, ARGV[1])
return 1
`)

// Redis persists the registry in Redis. Membership checks and list updates
// run inside Lua scripts so each mutation is atomic.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func indexKey() string {
	return redisKeyPrefix + "activities"
}

func activityKey(name string) string {
	return redisKeyPrefix + "activity:{" + base64.RawURLEncoding.EncodeToString([]byte(name)) + "}"
}

func participantsKey(name string) string {
	return activityKey(name) + ":participants"
}

func membersKey(name string) string {
	return activityKey(name) + ":members"
}

func (s *Redis) List(ctx context.Context) ([]*models.Activity, error) {
	names, err := s.client.LRange(ctx, indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity names: %w", err)
	}
	if len(names) == 0 {
		return []*models.Activity{}, nil
	}

	metas := make([]*redis.MapStringStringCmd, len(names))
	participants := make([]*redis.StringSliceCmd, len(names))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			metas[i] = pipe.HGetAll(ctx, activityKey(name))
			participants[i] = pipe.LRange(ctx, participantsKey(name), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	out := make([]*models.Activity, 0, len(names))
	for i, name := range names {
		a, err := decodeActivity(name, metas[i].Val(), participants[i].Val())
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Redis) FindByName(ctx context.Context, name string) (*models.Activity, error) {
	var meta *redis.MapStringStringCmd
	var participants *redis.StringSliceCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		meta = pipe.HGetAll(ctx, activityKey(name))
		participants = pipe.LRange(ctx, participantsKey(name), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load activity %q: %w", name, err)
	}
	if len(meta.Val()) == 0 {
		return nil, fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	return decodeActivity(name, meta.Val(), participants.Val())
}

func (s *Redis) AddParticipant(ctx context.Context, name, email string) error {
	res, err := s.runScript(ctx, addParticipantScript, name, email)
	if err != nil {
		return err
	}
	switch res {
	case scriptMissing:
		return fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	case scriptNoop:
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrConflict)
	}
	return nil
}

func (s *Redis) RemoveParticipant(ctx context.Context, name, email string) error {
	res, err := s.runScript(ctx, removeParticipantScript, name, email)
	if err != nil {
		return err
	}
	switch res {
	case scriptMissing:
		return fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	case scriptNoop:
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *Redis) runScript(ctx context.Context, script *redis.Script, name, email string) (int64, error) {
	keys := []string{activityKey(name), participantsKey(name), membersKey(name)}
	res, err := script.Run(ctx, s.client, keys, email).Int64()
	if err != nil {
		return 0, fmt.Errorf("update participants of %q: %w", name, err)
	}
	return res, nil
}

// Seed writes activities whose metadata hash does not exist yet.
func (s *Redis) Seed(ctx context.Context, activities []*models.Activity) error {
	for _, a := range activities {
		exists, err := s.client.Exists(ctx, activityKey(a.Name)).Result()
		if err != nil {
			return fmt.Errorf("check activity %q: %w", a.Name, err)
		}
		if exists > 0 {
			continue
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, activityKey(a.Name),
				"description", a.Description,
				"schedule", a.Schedule,
				"max_participants", a.MaxParticipants,
			)
			if len(a.Participants) > 0 {
				members := make([]any, len(a.Participants))
				for i, p := range a.Participants {
					members[i] = p
				}
				pipe.RPush(ctx, participantsKey(a.Name), members...)
				pipe.SAdd(ctx, membersKey(a.Name), members...)
			}
			pipe.RPush(ctx, indexKey(), a.Name)
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed activity %q: %w", a.Name, err)
		}
	}
	return nil
}

func (s *Redis) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return nil
}

func decodeActivity(name string, meta map[string]string, participants []string) (*models.Activity, error) {
	maxParticipants, err := strconv.Atoi(meta["max_participants"])
	if err != nil {
		return nil, fmt.Errorf("decode max_participants of %q: %w", name, err)
	}
	if participants == nil {
		participants = []string{}
	}
	return &models.Activity{
		Name:            name,
		Description:     meta["description"],
		Schedule:        meta["schedule"],
		MaxParticipants: maxParticipants,
		Participants:    participants,
	}, nil
}
