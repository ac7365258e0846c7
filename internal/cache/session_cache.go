package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canvasslabs/canvass/internal/flow"
	"github.com/canvasslabs/canvass/internal/model"
)

// CursorState is the stored chat-mode position. Complete marks an exhausted
// flow; the cursor itself is only meaningful while Complete is false. Vetoed
// holds the ids of questions the judge decided to skip, so later evaluations
// replay those decisions instead of consulting the model again.
type CursorState struct {
	Complete bool         `json:"complete"`
	Cursor   *flow.Cursor `json:"cursor,omitempty"`
	Vetoed   []string     `json:"vetoed,omitempty"`
}

// SessionCache handles Redis operations for respondent session state: the
// session record, the answer set and the chat cursor. Everything here is
// discarded when the session ends; submissions live in MongoDB.
type SessionCache interface {
	SetSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)

	SetAnswers(ctx context.Context, sessionID string, answers flow.AnswerSet) error
	GetAnswers(ctx context.Context, sessionID string) (flow.AnswerSet, error)

	SetCursor(ctx context.Context, sessionID string, state *CursorState) error
	GetCursor(ctx context.Context, sessionID string) (*CursorState, error)

	Delete(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// Key helpers
func (c *sessionCache) metaKey(sessionID string) string {
	return fmt.Sprintf("session:%s:meta", sessionID)
}

func (c *sessionCache) answersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

func (c *sessionCache) cursorKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cursor", sessionID)
}

func (c *sessionCache) SetSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.metaKey(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.metaKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) SetAnswers(ctx context.Context, sessionID string, answers flow.AnswerSet) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.answersKey(sessionID), data, c.ttl).Err()
}

func (c *sessionCache) GetAnswers(ctx context.Context, sessionID string) (flow.AnswerSet, error) {
	data, err := c.client.Get(ctx, c.answersKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var answers flow.AnswerSet
	if err := json.Unmarshal([]byte(data), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (c *sessionCache) SetCursor(ctx context.Context, sessionID string, state *CursorState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cursorKey(sessionID), data, c.ttl).Err()
}

func (c *sessionCache) GetCursor(ctx context.Context, sessionID string) (*CursorState, error) {
	data, err := c.client.Get(ctx, c.cursorKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state CursorState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete discards every key for a session
func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx,
		c.metaKey(sessionID),
		c.answersKey(sessionID),
		c.cursorKey(sessionID),
	).Err()
}
