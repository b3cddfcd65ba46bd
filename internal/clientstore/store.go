package clientstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/milanenterprises/cleancare-backend/pkg/logger"
)

var (
	ErrInvalidKey      = errors.New("invalid store key")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrLineNotFound    = errors.New("line not found")
)

var (
	keyPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}$`)
	sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)
)

func validKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ValidSessionID reports whether id can name a guest store
func ValidSessionID(id string) bool {
	return sessionPattern.MatchString(id)
}

type CartLine struct {
	ProductID uint      `json:"product_id"`
	Variant   string    `json:"variant,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

type CartSnapshot struct {
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s CartSnapshot) TotalQuantity() int {
	total := 0
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

func (s CartSnapshot) clone() CartSnapshot {
	lines := make([]CartLine, len(s.Lines))
	copy(lines, s.Lines)
	return CartSnapshot{Lines: lines, UpdatedAt: s.UpdatedAt}
}

type WishlistSnapshot struct {
	ProductIDs []uint    `json:"product_ids"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s WishlistSnapshot) Contains(productID uint) bool {
	for _, id := range s.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

func (s WishlistSnapshot) clone() WishlistSnapshot {
	ids := make([]uint, len(s.ProductIDs))
	copy(ids, s.ProductIDs)
	return WishlistSnapshot{ProductIDs: ids, UpdatedAt: s.UpdatedAt}
}

// keyLocks serialise read-modify-write cycles on one key across every store opened in this process
var keyLocks [64]sync.Mutex

func lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &keyLocks[h.Sum32()%uint32(len(keyLocks))]
}

// store holds the current snapshot and writes every replacement through the persister
type store[S any] struct {
	mu        sync.Mutex
	key       string
	persister Persister
	current   S
	now       func() time.Time
}

func open[S any](ctx context.Context, persister Persister, kind, id string) (*store[S], error) {
	if !ValidSessionID(id) {
		return nil, ErrInvalidKey
	}
	key := kind + "-" + id
	s := &store[S]{key: key, persister: persister, now: func() time.Time { return time.Now().UTC() }}

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.current = current
	return s, nil
}

func (s *store[S]) load(ctx context.Context) (S, error) {
	var current S
	data, err := s.persister.Load(ctx, s.key)
	if err != nil {
		return current, fmt.Errorf("failed to load %s: %w", s.key, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &current); err != nil {
			// a corrupt document starts an empty store rather than locking the visitor out
			logger.Warn("Discarding unreadable client state", map[string]interface{}{
				"key":   s.key,
				"error": err.Error(),
			})
			var empty S
			return empty, nil
		}
	}
	return current, nil
}

// apply reloads the persisted snapshot, runs mutate on it and commits the result only once it is persisted.
// Stores opened on the same key in other requests see each other's writes.
func (s *store[S]) apply(ctx context.Context, mutate func(S, time.Time) (S, error)) (S, error) {
	keyLock := lockFor(s.key)
	keyLock.Lock()
	defer keyLock.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.load(ctx)
	if err != nil {
		return s.current, err
	}
	s.current = latest

	next, err := mutate(s.current, s.now())
	if err != nil {
		return s.current, err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return s.current, err
	}
	if err := s.persister.Save(ctx, s.key, data); err != nil {
		return s.current, fmt.Errorf("failed to persist %s: %w", s.key, err)
	}
	s.current = next
	return next, nil
}

func (s *store[S]) snapshot() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

type CartStore struct {
	s *store[CartSnapshot]
}

func OpenCartStore(ctx context.Context, persister Persister, key string) (*CartStore, error) {
	s, err := open[CartSnapshot](ctx, persister, "cart", key)
	if err != nil {
		return nil, err
	}
	return &CartStore{s: s}, nil
}

func (c *CartStore) Snapshot() CartSnapshot {
	return c.s.snapshot().clone()
}

// Add sums quantities for an existing (product, variant) line
func (c *CartStore) Add(ctx context.Context, productID uint, variant string, quantity int) (CartSnapshot, error) {
	if quantity <= 0 {
		return c.Snapshot(), ErrInvalidQuantity
	}
	snap, err := c.s.apply(ctx, func(cur CartSnapshot, now time.Time) (CartSnapshot, error) {
		next := cur.clone()
		next.UpdatedAt = now
		for i := range next.Lines {
			if next.Lines[i].ProductID == productID && next.Lines[i].Variant == variant {
				next.Lines[i].Quantity += quantity
				return next, nil
			}
		}
		next.Lines = append(next.Lines, CartLine{ProductID: productID, Variant: variant, Quantity: quantity, AddedAt: now})
		return next, nil
	})
	return snap.clone(), err
}

func (c *CartStore) Update(ctx context.Context, productID uint, variant string, quantity int) (CartSnapshot, error) {
	if quantity <= 0 {
		return c.Snapshot(), ErrInvalidQuantity
	}
	snap, err := c.s.apply(ctx, func(cur CartSnapshot, now time.Time) (CartSnapshot, error) {
		next := cur.clone()
		for i := range next.Lines {
			if next.Lines[i].ProductID == productID && next.Lines[i].Variant == variant {
				next.Lines[i].Quantity = quantity
				next.UpdatedAt = now
				return next, nil
			}
		}
		return cur, ErrLineNotFound
	})
	return snap.clone(), err
}

func (c *CartStore) Remove(ctx context.Context, productID uint, variant string) (CartSnapshot, error) {
	snap, err := c.s.apply(ctx, func(cur CartSnapshot, now time.Time) (CartSnapshot, error) {
		next := CartSnapshot{Lines: make([]CartLine, 0, len(cur.Lines)), UpdatedAt: now}
		for _, line := range cur.Lines {
			if line.ProductID == productID && line.Variant == variant {
				continue
			}
			next.Lines = append(next.Lines, line)
		}
		if len(next.Lines) == len(cur.Lines) {
			return cur, ErrLineNotFound
		}
		return next, nil
	})
	return snap.clone(), err
}

func (c *CartStore) Clear(ctx context.Context) (CartSnapshot, error) {
	snap, err := c.s.apply(ctx, func(_ CartSnapshot, now time.Time) (CartSnapshot, error) {
		return CartSnapshot{Lines: []CartLine{}, UpdatedAt: now}, nil
	})
	return snap.clone(), err
}

type WishlistStore struct {
	s *store[WishlistSnapshot]
}

func OpenWishlistStore(ctx context.Context, persister Persister, key string) (*WishlistStore, error) {
	s, err := open[WishlistSnapshot](ctx, persister, "wishlist", key)
	if err != nil {
		return nil, err
	}
	return &WishlistStore{s: s}, nil
}

func (w *WishlistStore) Snapshot() WishlistSnapshot {
	return w.s.snapshot().clone()
}

func (w *WishlistStore) Contains(productID uint) bool {
	return w.s.snapshot().Contains(productID)
}

func (w *WishlistStore) Add(ctx context.Context, productID uint) (WishlistSnapshot, error) {
	snap, err := w.s.apply(ctx, func(cur WishlistSnapshot, now time.Time) (WishlistSnapshot, error) {
		if cur.Contains(productID) {
			return cur, nil
		}
		next := cur.clone()
		next.ProductIDs = append(next.ProductIDs, productID)
		sort.Slice(next.ProductIDs, func(i, j int) bool { return next.ProductIDs[i] < next.ProductIDs[j] })
		next.UpdatedAt = now
		return next, nil
	})
	return snap.clone(), err
}

func (w *WishlistStore) Remove(ctx context.Context, productID uint) (WishlistSnapshot, error) {
	snap, err := w.s.apply(ctx, func(cur WishlistSnapshot, now time.Time) (WishlistSnapshot, error) {
		if !cur.Contains(productID) {
			return cur, ErrLineNotFound
		}
		next := WishlistSnapshot{ProductIDs: make([]uint, 0, len(cur.ProductIDs)), UpdatedAt: now}
		for _, id := range cur.ProductIDs {
			if id != productID {
				next.ProductIDs = append(next.ProductIDs, id)
			}
		}
		return next, nil
	})
	return snap.clone(), err
}

func (w *WishlistStore) Clear(ctx context.Context) (WishlistSnapshot, error) {
	snap, err := w.s.apply(ctx, func(_ WishlistSnapshot, now time.Time) (WishlistSnapshot, error) {
		return WishlistSnapshot{ProductIDs: []uint{}, UpdatedAt: now}, nil
	})
	return snap.clone(), err
}
