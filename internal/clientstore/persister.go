package clientstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persister stores serialized snapshots by key. Load returns nil data when nothing is stored.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

func (p *MemoryPersister) Load(ctx context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	stored, ok := p.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), stored...), nil
}

func (p *MemoryPersister) Save(ctx context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = append([]byte(nil), data...)
	return nil
}

// FilePersister keeps one JSON document per key under Dir
type FilePersister struct {
	Dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	return &FilePersister{Dir: dir}, nil
}

func (p *FilePersister) path(key string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(p.Dir, key+".json"), nil
}

func (p *FilePersister) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := p.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save writes to a temp file and renames it so readers never see a partial document
func (p *FilePersister) Save(ctx context.Context, key string, data []byte) error {
	path, err := p.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type RedisPersister struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisPersister expires idle snapshots after ttl; zero keeps them forever
func NewRedisPersister(rdb redis.Cmdable, ttl time.Duration) *RedisPersister {
	return &RedisPersister{rdb: rdb, ttl: ttl}
}

func (p *RedisPersister) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.rdb.Get(ctx, "clientstore:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (p *RedisPersister) Save(ctx context.Context, key string, data []byte) error {
	return p.rdb.Set(ctx, "clientstore:"+key, data, p.ttl).Err()
}
