package strategy

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// ErrDuplicateID is returned when a strategy id is registered twice.
var ErrDuplicateID = errors.New("duplicate strategy id")

// Registry is an append-only catalog of strategies. It is populated at
// startup and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	order []*Strategy
	byID  map[string]*Strategy
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Strategy)}
}

// Register validates and adds s.
func (r *Registry) Register(s *Strategy) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return errors.Wrap(ErrDuplicateID, s.ID)
	}
	r.byID[s.ID] = s
	r.order = append(r.order, s)
	return nil
}

// MustRegister panics on error; for static catalogs.
func (r *Registry) MustRegister(s *Strategy) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(id string) (*Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// All returns every strategy in registration order.
func (r *Registry) All() []*Strategy {
	return r.filter(func(*Strategy) bool { return true })
}

func (r *Registry) ByCategory(c Category) []*Strategy {
	return r.filter(func(s *Strategy) bool { return s.Category == c })
}

func (r *Registry) ByDirection(d types.Direction) []*Strategy {
	return r.filter(func(s *Strategy) bool { return s.Direction == d })
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Categories returns the number of strategies per category, with the
// category names sorted.
func (r *Registry) Categories() ([]Category, map[Category]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[Category]int)
	for _, s := range r.order {
		counts[s.Category]++
	}
	names := make([]Category, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, counts
}

func (r *Registry) filter(keep func(*Strategy) bool) []*Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Strategy, 0, len(r.order))
	for _, s := range r.order {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
