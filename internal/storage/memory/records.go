package memory

import (
	"context"
	"sync"

	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
)

var (
	_ welcome.SubscriberRepository = (*Subscribers)(nil)
	_ subscription.Repository      = (*Subscriptions)(nil)
)

// Subscribers is an in-memory set of signed-up email addresses.
type Subscribers struct {
	mu     sync.RWMutex
	emails map[string]struct{}
}

func NewSubscribers() *Subscribers {
	return &Subscribers{emails: make(map[string]struct{})}
}

func (s *Subscribers) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emails[email]
	return ok, nil
}

func (s *Subscribers) Add(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[email] = struct{}{}
	return nil
}

// Subscriptions keeps confirmed subscriptions in order.
type Subscriptions struct {
	mu   sync.Mutex
	subs []subscription.Subscription
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{}
}

func (s *Subscriptions) Create(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, *sub)
	return nil
}

// All returns a copy of the recorded subscriptions.
func (s *Subscriptions) All() []subscription.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]subscription.Subscription(nil), s.subs...)
}
