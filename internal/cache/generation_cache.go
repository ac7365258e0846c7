package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/canvasslabs/canvass/internal/model"
)

// GenerationCache handles Redis operations for AI-generated question lists,
// keyed by a hash of the generation request so a repeated prompt does not
// repeat the model call
type GenerationCache interface {
	SetQuestions(ctx context.Context, requestHash string, questions []model.Question) error
	GetQuestions(ctx context.Context, requestHash string) ([]model.Question, error)
	Delete(ctx context.Context, requestHash string) error
}

type generationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGenerationCache creates a new generation cache
func NewGenerationCache(client *redis.Client) GenerationCache {
	return &generationCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// RequestHash derives the cache key material for a generation request
func RequestHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *generationCache) key(requestHash string) string {
	return fmt.Sprintf("gen:%s", requestHash)
}

func (c *generationCache) SetQuestions(ctx context.Context, requestHash string, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(requestHash), data, c.ttl).Err()
}

func (c *generationCache) GetQuestions(ctx context.Context, requestHash string) ([]model.Question, error) {
	data, err := c.client.Get(ctx, c.key(requestHash)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal([]byte(data), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *generationCache) Delete(ctx context.Context, requestHash string) error {
	return c.client.Del(ctx, c.key(requestHash)).Err()
}
