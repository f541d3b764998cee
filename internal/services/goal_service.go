package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService manages savings goals and the goals page summary.
type GoalService struct {
	storage *storage.Repository
}

func NewGoalService(storage *storage.Repository) *GoalService {
	return &GoalService{storage: storage}
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if _, err := s.storage.GetUser(ctx, g.UserID); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.storage.CreateGoal(ctx, g)
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	return s.storage.ListGoals(ctx, userID)
}

// AddFunds moves money into a goal. Only positive amounts are accepted and
// the goal must belong to the calling user.
func (s *GoalService) AddFunds(ctx context.Context, userID, goalID int64, amount core.Money) (core.SavingsGoal, error) {
	if err := amount.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.storage.AddFunds(ctx, userID, goalID, amount)
}

// Overview computes the goals page header from the user's goals and this
// month's contributions.
func (s *GoalService) Overview(ctx context.Context, userID int64, now time.Time) (core.GoalsOverview, error) {
	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return core.GoalsOverview{}, err
	}
	invested, err := s.storage.MonthContributions(ctx, userID, now.Year(), int(now.Month()))
	if err != nil {
		return core.GoalsOverview{}, err
	}
	return core.ComputeGoalsOverview(goals, invested, now), nil
}
