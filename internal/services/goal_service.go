package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moneymind/internal/amqp"
	"moneymind/internal/core"
	"moneymind/internal/finance"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

// GoalInput carries the editable fields of a goal. Updates replace all of
// them; CurrentAmount defaults to zero.
type GoalInput struct {
	Title         string
	TargetAmount  core.Money
	CurrentAmount core.Money
	Deadline      core.Date
}

// GoalView is a goal with its derived fields computed for one day.
type GoalView struct {
	core.Goal
	Status      core.GoalStatus
	Progress    float64
	RawProgress float64
	Remaining   core.Money
}

type GoalService struct {
	store  storage.GoalStore
	events events
	clock  clock
}

func NewGoalService(store storage.GoalStore, pub Publisher) *GoalService {
	return &GoalService{
		store:  store,
		events: events{pub: pub},
		clock:  time.Now,
	}
}

// View derives status and display progress as of today.
func (s *GoalService) View(g core.Goal) GoalView {
	return viewGoal(g, s.clock.today())
}

func viewGoal(g core.Goal, today core.Date) GoalView {
	return GoalView{
		Goal:        g,
		Status:      g.Status(today),
		Progress:    finance.DisplayProgress(g),
		RawProgress: finance.RawProgress(g),
		Remaining:   finance.Remaining(g),
	}
}

func (in GoalInput) goal(userID int64) core.Goal {
	return core.Goal{
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline,
	}
}

func (s *GoalService) Create(ctx context.Context, userID int64, in GoalInput) (GoalView, error) {
	g := in.goal(userID)
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	g.CreatedAt = s.clock.now()

	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("create goal: %w", err)
	}
	s.events.publish(ctx, amqp.KindGoalCreated, userID, created.ID)
	return s.View(created), nil
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalView{}, fmt.Errorf("get goal: %w", err)
	}
	return s.View(g), nil
}

// Update replaces the goal's fields. A goal owned by someone else is
// reported as core.ErrNotFound.
func (s *GoalService) Update(ctx context.Context, userID, id int64, in GoalInput) (GoalView, error) {
	g := in.goal(userID)
	g.ID = id
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}

	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("update goal: %w", err)
	}
	s.events.publish(ctx, amqp.KindGoalUpdated, userID, id)
	return s.View(updated), nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.events.publish(ctx, amqp.KindGoalDeleted, userID, id)
	return nil
}

// Contribute adds amount to the goal's current amount. The store applies
// the addition atomically.
func (s *GoalService) Contribute(ctx context.Context, userID, id int64, amount core.Money) (GoalView, error) {
	if amount.Cents <= 0 {
		return GoalView{}, core.Invalid("amount", "must be greater than zero")
	}
	if amount.Cents > core.MaxCents {
		return GoalView{}, core.ErrAmountTooLarge
	}
	g, err := s.store.ContributeGoal(ctx, userID, id, amount)
	if err != nil {
		return GoalView{}, fmt.Errorf("contribute to goal: %w", err)
	}
	s.events.publish(ctx, amqp.KindGoalContributed, userID, id)
	return s.View(g), nil
}

// List pages the caller's goals. The status filter, if any, is evaluated
// as of q.Today, or today when unset.
func (s *GoalService) List(ctx context.Context, userID int64, q query.GoalQuery) (query.Page[GoalView], error) {
	if q.Today.IsZero() {
		q.Today = s.clock.today()
	}
	q = query.NormalizeGoalQuery(q)

	page, err := s.store.ListGoals(ctx, userID, q)
	if err != nil {
		return query.Page[GoalView]{}, fmt.Errorf("list goals: %w", err)
	}
	return query.Map(page, func(g core.Goal) GoalView {
		return viewGoal(g, q.Today)
	}), nil
}
