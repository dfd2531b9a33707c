// Package welcome implements the one-time welcome notice and its email
// signup, which hands out a discount code.
package welcome

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/storage"
)

// ErrInvalidEmail is returned when signup is given an unusable address.
var ErrInvalidEmail = errors.New("invalid email address")

// SubscriberRepository records signed-up email addresses.
type SubscriberRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) error
}

// Config controls the notice and the code it hands out.
type Config struct {
	Delay time.Duration
	Code  string
	// ExpectedSignups sizes the dedupe filter.
	ExpectedSignups uint
}

// Decision tells the page whether to show the welcome notice.
type Decision struct {
	Show  bool
	Delay time.Duration
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	Code      string
	Returning bool
	Dialog    notice.Notice
}

// Service decides when to show the notice and handles signups.
type Service struct {
	cfg   Config
	slots storage.Slots
	subs  SubscriberRepository
	lg    *zap.Logger

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewService creates a welcome Service.
func NewService(cfg Config, slots storage.Slots, subs SubscriberRepository, lg *zap.Logger) *Service {
	if cfg.ExpectedSignups == 0 {
		cfg.ExpectedSignups = 100_000
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		cfg:    cfg,
		slots:  slots,
		subs:   subs,
		lg:     lg,
		filter: bloom.NewWithEstimates(cfg.ExpectedSignups, 0.001),
	}
}

// Check reports whether session should see the notice. The first call for a
// session answers yes and records that it has been shown.
func (s *Service) Check(ctx context.Context, session string) (Decision, error) {
	_, err := s.slots.Get(ctx, session, storage.KeyModalShown)
	switch {
	case err == nil:
		return Decision{}, nil
	case !errors.Is(err, storage.ErrNotFound):
		return Decision{}, errors.Wrap(err, "read welcome flag")
	}

	if err := s.slots.Set(ctx, session, storage.KeyModalShown, []byte("true")); err != nil {
		return Decision{}, errors.Wrap(err, "write welcome flag")
	}
	return Decision{Show: true, Delay: s.cfg.Delay}, nil
}

// Signup records email and returns the thank-you dialog with the discount
// code. Signing up twice is not an error.
func (s *Service) Signup(ctx context.Context, email string) (*SignupResult, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	maybeSeen := s.filter.TestString(addr)
	s.mu.Unlock()

	returning := false
	if maybeSeen {
		returning, err = s.subs.Exists(ctx, addr)
		if err != nil {
			return nil, errors.Wrap(err, "check subscriber")
		}
	}
	if !returning {
		if err := s.subs.Add(ctx, addr); err != nil {
			return nil, errors.Wrap(err, "add subscriber")
		}
		s.lg.Info("Email submitted", zap.String("email", addr))
	}

	s.mu.Lock()
	s.filter.AddString(addr)
	s.mu.Unlock()

	return &SignupResult{
		Code:      s.cfg.Code,
		Returning: returning,
		Dialog: notice.Notice{
			Kind:    notice.KindSuccess,
			Title:   "Thank You!",
			Text:    fmt.Sprintf("Your 10%% discount code is: %s. We've sent it to your email as well.", s.cfg.Code),
			Confirm: "Continue Shopping",
		},
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	a, err := mail.ParseAddress(email)
	if err != nil || a.Name != "" {
		return "", errors.Wrapf(ErrInvalidEmail, "%q", email)
	}
	return strings.ToLower(a.Address), nil
}
