package announce

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Blob struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// BlobStore holds synthesized audio for the playback window. Entries vanish
// after their TTL; Get on an expired or unknown id reports found=false.
type BlobStore interface {
	Put(ctx context.Context, id string, b Blob, ttl time.Duration) error
	Get(ctx context.Context, id string) (Blob, bool, error)
}

type memoryStore struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

func NewMemoryStore() BlobStore {
	return &memoryStore{blobs: make(map[string]Blob)}
}

func (s *memoryStore) Put(_ context.Context, id string, b Blob, ttl time.Duration) error {
	s.mu.Lock()
	s.blobs[id] = b
	s.mu.Unlock()

	// deletion is idempotent, so a race with Get or a repeated Put is harmless
	time.AfterFunc(ttl, func() {
		s.mu.Lock()
		delete(s.blobs, id)
		s.mu.Unlock()
	})
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Blob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[id]
	return b, ok, nil
}

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore keeps blobs in Redis with key TTLs, so playback survives a
// process restart and expiry needs no local timers.
func NewRedisStore(rdb *redis.Client) BlobStore {
	return &redisStore{rdb: rdb}
}

func blobKey(id string) string { return "audio:blob:" + id }

func (s *redisStore) Put(ctx context.Context, id string, b Blob, ttl time.Duration) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, blobKey(id), payload, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) (Blob, bool, error) {
	payload, err := s.rdb.Get(ctx, blobKey(id)).Bytes()
	if err == redis.Nil {
		return Blob{}, false, nil
	}
	if err != nil {
		return Blob{}, false, err
	}
	var b Blob
	if err := json.Unmarshal(payload, &b); err != nil {
		return Blob{}, false, err
	}
	return b, true, nil
}
