// Package subscription implements the subscription plan confirmation flow.
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/kart-storefront/internal/domain/notice"
)

// ErrUnknownPlan matches any UnknownPlanError.
var ErrUnknownPlan = errors.New("unknown plan")

// UnknownPlanError indicates the requested plan is not offered.
type UnknownPlanError struct {
	Plan string
}

func (e *UnknownPlanError) Error() string {
	return fmt.Sprintf("plan %q is not offered", e.Plan)
}

func (e *UnknownPlanError) Is(target error) bool {
	return target == ErrUnknownPlan
}

// Subscription is a confirmed plan selection.
type Subscription struct {
	ID        string
	Session   string
	Plan      string
	CreatedAt time.Time
}

// Repository persists confirmed subscriptions.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
}

// Service drives the prompt and confirmation dialogs.
type Service struct {
	plans map[string]string // lower-cased -> display name
	order []string
	repo  Repository
	now   func() time.Time
}

// NewService offers the given plan names.
func NewService(plans []string, repo Repository) *Service {
	s := &Service{plans: make(map[string]string, len(plans)), repo: repo, now: time.Now}
	for _, p := range plans {
		key := strings.ToLower(strings.TrimSpace(p))
		if _, ok := s.plans[key]; ok || key == "" {
			continue
		}
		s.plans[key] = p
		s.order = append(s.order, p)
	}
	return s
}

// Plans returns the display names of the offered plans in offer order.
func (s *Service) Plans() []string {
	return append([]string(nil), s.order...)
}

func (s *Service) resolve(plan string) (string, error) {
	name, ok := s.plans[strings.ToLower(strings.TrimSpace(plan))]
	if !ok {
		return "", &UnknownPlanError{Plan: plan}
	}
	return name, nil
}

// Prompt returns the confirmation dialog for plan.
func (s *Service) Prompt(plan string) (notice.Notice, error) {
	name, err := s.resolve(plan)
	if err != nil {
		return notice.Notice{}, err
	}
	return notice.Notice{
		Kind:    notice.KindQuestion,
		Title:   "Join the Club!",
		Text:    fmt.Sprintf("You are selecting the %s plan. Proceed to secure payment?", name),
		Confirm: "Yes, Subscribe!",
		Cancel:  "Cancel",
	}, nil
}

// Confirm records the subscription and returns the success dialog.
func (s *Service) Confirm(ctx context.Context, session, plan string) (*Subscription, notice.Notice, error) {
	name, err := s.resolve(plan)
	if err != nil {
		return nil, notice.Notice{}, err
	}

	sub := &Subscription{
		ID:        uuid.New().String(),
		Session:   session,
		Plan:      name,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, notice.Notice{}, errors.Wrap(err, "create subscription")
	}

	return sub, notice.Notice{
		Kind:    notice.KindSuccess,
		Title:   "Welcome Aboard!",
		Text:    "Your subscription has been processed successfully.",
		Confirm: "OK",
	}, nil
}
