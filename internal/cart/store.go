package cart

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Store owns one cart. Pass it explicitly to whoever needs it.
type Store struct {
	mu     sync.Mutex
	cart   Cart
	subs   []subscriber
	nextID int
	logger *zap.Logger
}

type subscriber struct {
	id int
	fn func(Cart)
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger: logger.With(zap.String("component", "cart")),
	}
}

// Dispatch applies a and notifies subscribers. Rejected actions leave the
// cart untouched and notify nobody.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	next, err := Reduce(s.cart, a)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("Cart action rejected", zap.String("action", actionName(a)), zap.Error(err))
		return err
	}
	s.cart = next
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.logger.Debug("Cart updated",
		zap.String("action", actionName(a)),
		zap.Int("lines", len(next.Lines)),
		zap.Int("units", next.Count()),
		zap.String("total", next.Total().StringFixed(2)),
	)
	for _, sub := range subs {
		sub.fn(next.clone())
	}
	return nil
}

// Cart returns a snapshot of the current cart.
func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

// Subscribe registers fn for every accepted update and returns a function
// that removes it. Subscribers are called in registration order.
func (s *Store) Subscribe(fn func(Cart)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

func actionName(a Action) string {
	switch a.(type) {
	case AddItem:
		return "add_item"
	case RemoveItem:
		return "remove_item"
	case SetQuantity:
		return "set_quantity"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}
