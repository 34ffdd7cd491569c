package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/form"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrDraftNotFound = errors.New("product form not found or expired")
)

// DraftStore keeps open product form drafts between requests
type DraftStore interface {
	Save(ctx context.Context, id uuid.UUID, draft form.Draft) error
	Load(ctx context.Context, id uuid.UUID) (form.Draft, error)
	// Take removes the draft and returns it. Of several concurrent callers
	// only one gets the draft; the others get ErrDraftNotFound.
	Take(ctx context.Context, id uuid.UUID) (form.Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisDraftStore stores drafts as JSON under prefix:<id>. Every save
// renews the ttl, so a draft expires after ttl of inactivity.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration, prefix string) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *redisDraftStore) key(id uuid.UUID) string {
	return s.prefix + ":" + id.String()
}

// Save writes the draft and refreshes its expiry
func (s *redisDraftStore) Save(ctx context.Context, id uuid.UUID, draft form.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

// Load reads a draft, returning ErrDraftNotFound once it has expired
func (s *redisDraftStore) Load(ctx context.Context, id uuid.UUID) (form.Draft, error) {
	return decodeDraft(s.client.Get(ctx, s.key(id)).Bytes())
}

// Take claims a draft with GETDEL
func (s *redisDraftStore) Take(ctx context.Context, id uuid.UUID) (form.Draft, error) {
	return decodeDraft(s.client.GetDel(ctx, s.key(id)).Bytes())
}

func decodeDraft(data []byte, err error) (form.Draft, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return form.Draft{}, ErrDraftNotFound
		}
		return form.Draft{}, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft form.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return form.Draft{}, fmt.Errorf("failed to decode draft: %w", err)
	}

	return draft, nil
}

// Delete ends a draft's lifetime
func (s *redisDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}
