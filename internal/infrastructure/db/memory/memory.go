// Package memory provides in-process implementations of the repository
// ports. They back local runs without MongoDB and the end-to-end tests.
// A single mutex per store gives the stock operations the same
// check-and-update atomicity as the MongoDB conditional update.
package memory

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sync"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// UserStore implements ports.AuthRepository.
type UserStore struct {
	mu      sync.RWMutex
	seq     int
	byEmail map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{byEmail: make(map[string]*domain.User)}
}

func (s *UserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	s.seq++
	clone := *user
	clone.ID = fmt.Sprintf("%024x", s.seq)
	s.byEmail[clone.Email] = &clone

	out := clone
	return &out, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// SweetStore implements ports.SweetRepository, preserving insertion order.
type SweetStore struct {
	mu     sync.Mutex
	seq    int
	order  []string
	sweets map[string]*domain.Sweet
	now    func() time.Time
}

func NewSweetStore() *SweetStore {
	return &SweetStore{sweets: make(map[string]*domain.Sweet), now: time.Now}
}

func (s *SweetStore) Create(_ context.Context, sweet *domain.Sweet) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	clone := *sweet
	clone.ID = fmt.Sprintf("%024x", s.seq)
	s.sweets[clone.ID] = &clone
	s.order = append(s.order, clone.ID)

	out := clone
	return &out, nil
}

func (s *SweetStore) FindByID(_ context.Context, id string) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sweet, ok := s.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	clone := *sweet
	return &clone, nil
}

func (s *SweetStore) List(_ context.Context, page, limit int) ([]*domain.Sweet, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := int64(len(s.order))
	if page < 1 {
		page = 1
	}
	if limit < 1 || page-1 > len(s.order)/limit {
		return []*domain.Sweet{}, total, nil
	}
	skip := (page - 1) * limit
	if skip >= len(s.order) {
		return []*domain.Sweet{}, total, nil
	}
	end := skip + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	out := make([]*domain.Sweet, 0, end-skip)
	for _, id := range s.order[skip:end] {
		clone := *s.sweets[id]
		out = append(out, &clone)
	}
	return out, total, nil
}

func (s *SweetStore) Search(_ context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
	var nameRe *regexp.Regexp
	if f.Name != "" {
		nameRe = regexp.MustCompile("(?i)" + regexp.QuoteMeta(f.Name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.Sweet{}
	for _, id := range s.order {
		sw := s.sweets[id]
		if nameRe != nil && !nameRe.MatchString(sw.Name) {
			continue
		}
		if f.Category != "" && sw.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && sw.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && sw.Price > *f.MaxPrice {
			continue
		}
		clone := *sw
		out = append(out, &clone)
	}
	return out, nil
}

func (s *SweetStore) Replace(_ context.Context, id string, sweet *domain.Sweet) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	cur.Name = sweet.Name
	cur.Category = sweet.Category
	cur.Price = sweet.Price
	cur.Quantity = sweet.Quantity
	cur.Description = sweet.Description
	cur.ImageURL = sweet.ImageURL
	cur.UpdatedAt = sweet.UpdatedAt

	clone := *cur
	return &clone, nil
}

func (s *SweetStore) Delete(_ context.Context, id string) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	delete(s.sweets, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return cur, nil
}

func (s *SweetStore) DecrementStock(_ context.Context, id string, qty int) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if cur.Quantity < qty {
		return nil, domain.ErrInsufficientStock
	}
	cur.Quantity -= qty
	cur.UpdatedAt = s.now().UTC()

	clone := *cur
	return &clone, nil
}

func (s *SweetStore) IncrementStock(_ context.Context, id string, qty int) (*domain.Sweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if qty > math.MaxInt-cur.Quantity {
		return nil, domain.ErrStockOverflow
	}
	cur.Quantity += qty
	cur.UpdatedAt = s.now().UTC()

	clone := *cur
	return &clone, nil
}

// KeyStore implements ports.IdempotencyStore without expiry.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]struct{})}
}

func (k *KeyStore) Reserve(_ context.Context, key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, seen := k.keys[key]; seen {
		return false, nil
	}
	k.keys[key] = struct{}{}
	return true, nil
}

func (k *KeyStore) Release(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.keys, key)
	return nil
}
