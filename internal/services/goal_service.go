package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/store"
)

type GoalService struct {
	repo   store.GoalRepository
	clock  core.Clock
	logger *log.Logger
	newID  func() string
}

func NewGoalService(repo store.GoalRepository, clock core.Clock, logger *log.Logger) *GoalService {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &GoalService{
		repo:   repo,
		clock:  clock,
		logger: componentLogger(logger, log.ComponentGoal),
		newID:  uuid.NewString,
	}
}

// Add creates a goal with its initial on-track flag.
func (s *GoalService) Add(ctx context.Context, userID string, n core.NewGoal) (core.Goal, error) {
	n.Name = strings.TrimSpace(n.Name)
	if err := n.Validate(); err != nil {
		return core.Goal{}, err
	}
	now := s.clock.Now()
	g := core.Goal{
		ID:        s.newID(),
		Name:      n.Name,
		Target:    n.Target,
		Current:   n.Current,
		Deadline:  n.Deadline,
		Category:  n.Category,
		CreatedAt: now.UTC(),
	}
	g.OnTrack = g.Project(core.DateOf(now)).OnTrack

	if err := s.repo.AddGoal(ctx, userID, g); err != nil {
		return core.Goal{}, storeErr("add goal", err)
	}
	s.logger.InfoContext(ctx, "Goal added",
		log.FieldUserID, userID,
		log.FieldGoalID, g.ID,
		"on_track", g.OnTrack)
	return g, nil
}

// UpdateProgress sets the current amount and recomputes the on-track flag.
// Nothing else about the goal changes.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, id string, current core.Money) (core.Goal, error) {
	if current.Cents < 0 {
		return core.Goal{}, core.Invalid("current", core.ErrInvalidAmount)
	}
	g, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, storeErr(fmt.Sprintf("get goal %s", id), err)
	}
	g.Current = current
	g.OnTrack = g.Project(core.Today(s.clock)).OnTrack

	if err := s.repo.UpdateGoalProgress(ctx, userID, id, g.Current, g.OnTrack); err != nil {
		return core.Goal{}, storeErr(fmt.Sprintf("update goal %s", id), err)
	}
	s.logger.InfoContext(ctx, "Goal progress updated",
		log.FieldUserID, userID,
		log.FieldGoalID, id,
		log.FieldAmountCents, current.Cents,
		"on_track", g.OnTrack)
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		return storeErr(fmt.Sprintf("delete goal %s", id), err)
	}
	s.logger.InfoContext(ctx, "Goal deleted", log.FieldUserID, userID, log.FieldGoalID, id)
	return nil
}

// List returns the user's goals, soonest deadline first.
func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, storeErr("list goals", err)
	}
	core.SortGoalsByDeadline(goals)
	return goals, nil
}

func (s *GoalService) Stats(ctx context.Context, userID string) (core.GoalStats, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return core.GoalStats{}, err
	}
	return core.SummarizeGoals(goals, s.Today()), nil
}

// Today is the service clock's current date.
func (s *GoalService) Today() core.Date {
	return core.Today(s.clock)
}
