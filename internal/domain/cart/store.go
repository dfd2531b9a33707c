package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/notice"
)

// Presenter receives the visible side effects of cart operations.
type Presenter interface {
	UpdateCount(count int)
	Render(vm ViewModel)
	Notify(n notice.Notice)
}

// NopPresenter discards all side effects.
type NopPresenter struct{}

func (NopPresenter) UpdateCount(int)      {}
func (NopPresenter) Render(ViewModel)     {}
func (NopPresenter) Notify(notice.Notice) {}

type presenterKey struct{}

// WithPresenter returns a context whose cart operations report to p instead
// of the store's default presenter.
func WithPresenter(ctx context.Context, p Presenter) context.Context {
	return context.WithValue(ctx, presenterKey{}, p)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithAdjuster sets the initial price adjuster used when rendering.
func WithAdjuster(a Adjuster) Option {
	return func(s *Store) { s.adj = a }
}

// Store owns one cart. Every mutation persists the full snapshot before it
// returns; if persisting fails the mutation is undone, so the in-memory cart
// and the snapshot never diverge.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	storage   Storage
	presenter Presenter
	adj       Adjuster
	lg        *zap.Logger
}

// Open loads the persisted snapshot and returns a Store for it. A missing or
// unreadable snapshot yields an empty cart.
func Open(ctx context.Context, storage Storage, p Presenter, opts ...Option) *Store {
	if p == nil {
		p = NopPresenter{}
	}
	s := &Store{
		storage:   storage,
		presenter: p,
		lg:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}

	items, err := storage.Load(ctx)
	if err != nil {
		s.lg.Warn("Cart snapshot unreadable, starting empty", zap.Error(err))
		items = nil
	}
	clean, dropped := sanitize(items)
	if dropped > 0 {
		s.lg.Warn("Dropped invalid snapshot entries", zap.Int("dropped", dropped))
	}
	s.items = clean
	return s
}

func (s *Store) presenterFor(ctx context.Context) Presenter {
	if p, ok := ctx.Value(presenterKey{}).(Presenter); ok && p != nil {
		return p
	}
	return s.presenter
}

// commit persists next and makes it the current cart.
func (s *Store) commit(ctx context.Context, next []LineItem) error {
	if err := s.storage.Save(ctx, next); err != nil {
		return errors.Wrap(err, "save cart")
	}
	s.items = next
	return nil
}

// Add puts one unit of the named product into the cart. If the product is
// already present its quantity grows by one and price and image are ignored.
// Adding past MaxQuantity fails with ErrInvalidItem.
func (s *Store) Add(ctx context.Context, name string, price decimal.Decimal, image string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidItem, "empty name")
	}
	if price.IsNegative() {
		return errors.Wrapf(ErrInvalidItem, "negative price for %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneItems(s.items)
	if i := indexOf(next, name); i >= 0 {
		if next[i].Quantity >= MaxQuantity {
			return errors.Wrapf(ErrInvalidItem, "%q already at quantity limit %d", name, MaxQuantity)
		}
		next[i].Quantity++
	} else {
		next = append(next, LineItem{
			Name:      name,
			UnitPrice: price,
			Image:     image,
			Quantity:  1,
		})
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	p := s.presenterFor(ctx)
	p.UpdateCount(Count(s.items))
	p.Notify(notice.AddedToCart(name))
	return nil
}

// Remove deletes the named item. Removing an absent item is a no-op.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, name)
}

func (s *Store) removeLocked(ctx context.Context, name string) error {
	if i := indexOf(s.items, name); i >= 0 {
		if err := s.commit(ctx, removeAt(s.items, i)); err != nil {
			return err
		}
	}
	p := s.presenterFor(ctx)
	p.UpdateCount(Count(s.items))
	s.renderLocked(p)
	return nil
}

// ChangeQuantity adds delta to the named item's quantity, removing the item
// when the result drops to zero or below. Absent items are left alone. A
// result above MaxQuantity fails with ErrInvalidItem and changes nothing.
func (s *Store) ChangeQuantity(ctx context.Context, name string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, name)
	if i < 0 {
		return nil
	}
	// Quantity is within [1, MaxQuantity], so only the upper bound can
	// overflow.
	if delta > MaxQuantity-s.items[i].Quantity {
		return errors.Wrapf(ErrInvalidItem, "quantity of %q would exceed %d", name, MaxQuantity)
	}
	if s.items[i].Quantity+delta <= 0 {
		return s.removeLocked(ctx, name)
	}

	next := cloneItems(s.items)
	next[i].Quantity += delta
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	p := s.presenterFor(ctx)
	p.UpdateCount(Count(s.items))
	s.renderLocked(p)
	return nil
}

// Total returns the sum of unit price times quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// Count returns the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

// Items returns a copy of the cart contents in order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// View returns the current ViewModel without notifying anyone.
func (s *Store) View() ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.items, s.adj)
}

// SetAdjuster replaces the price adjuster and re-renders.
func (s *Store) SetAdjuster(ctx context.Context, a Adjuster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adj = a
	s.renderLocked(s.presenterFor(ctx))
}

// Render pushes the current ViewModel to the presenter.
func (s *Store) Render(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked(s.presenterFor(ctx))
}

func (s *Store) renderLocked(p Presenter) {
	vm := Render(s.items, s.adj)
	p.Render(vm)
	p.UpdateCount(vm.Count)
}

// UpdateCount pushes the current unit count to the presenter.
func (s *Store) UpdateCount(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenterFor(ctx).UpdateCount(Count(s.items))
}

// Initialize refreshes the count indicator and the cart view, as done once
// when a page is first shown.
func (s *Store) Initialize(ctx context.Context) {
	s.UpdateCount(ctx)
	s.Render(ctx)
}
