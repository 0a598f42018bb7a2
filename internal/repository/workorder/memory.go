package workorder

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

// MemoryStore is an in-process Store used for tests and the "memory" driver.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]entity.WorkOrder
	limit  int
}

// NewMemoryStore returns an empty store whose List returns at most limit orders.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 10
	}
	return &MemoryStore{orders: make(map[string]entity.WorkOrder), limit: limit}
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	orders := make([]entity.WorkOrder, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	s.mu.RUnlock()

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Timestamp.Equal(orders[j].Timestamp) {
			return orders[i].OrderID < orders[j].OrderID
		}
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	if len(orders) > s.limit {
		orders = orders[:s.limit]
	}

	records := make([]Record, len(orders))
	for i := range orders {
		o := orders[i]
		records[i] = Record{Order: &o}
	}
	return records, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[strings.TrimSpace(id)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Order: &o}, nil
}

func (s *MemoryStore) Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[w.OrderID]; exists {
		return nil, ErrConflict
	}
	s.orders[w.OrderID] = w
	return &w, nil
}

func (s *MemoryStore) Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[w.OrderID]; !exists {
		return nil, ErrNotFound
	}
	s.orders[w.OrderID] = w
	return &w, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.orders, strings.TrimSpace(id))
	s.mu.Unlock()
	return nil
}
