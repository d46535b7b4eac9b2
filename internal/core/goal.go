package core

import (
	"math"
	"sort"
)

// GoalProjection is the display-side evaluation of a goal. DailyRequired is
// never persisted.
type GoalProjection struct {
	DaysLeft      int
	DailyRequired Money
	OnTrack       bool
}

// ProjectGoal evaluates feasibility as of today. With no days left the goal
// is on track only if already met; otherwise it is on track when nothing
// remains to be saved.
func ProjectGoal(target, current Money, deadline, today Date) GoalProjection {
	p := GoalProjection{DaysLeft: today.DaysUntil(deadline)}
	remaining := target.Cents - current.Cents
	if p.DaysLeft <= 0 {
		p.OnTrack = current.Cents >= target.Cents
		return p
	}
	p.DailyRequired = Money{Cents: int64(math.Round(float64(remaining) / float64(p.DaysLeft)))}
	p.OnTrack = remaining <= 0 || current.Cents >= target.Cents
	return p
}

// Project evaluates g as of today.
func (g Goal) Project(today Date) GoalProjection {
	return ProjectGoal(g.Target, g.Current, g.Deadline, today)
}

// Progress is current/target, not capped.
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.Current.Cents) / float64(g.Target.Cents)
}

// SortGoalsByDeadline orders soonest deadline first; equal deadlines keep
// creation order.
func SortGoalsByDeadline(goals []Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		if !goals[i].Deadline.Equal(goals[j].Deadline.Time) {
			return goals[i].Deadline.Before(goals[j].Deadline.Time)
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
}

type GoalStats struct {
	Total           int
	OnTrack         int
	TotalCurrent    Money
	TotalTarget     Money
	OverallProgress Percent
	AverageProgress Percent
}

// SummarizeGoals aggregates the goal list for the analytics panel. OnTrack
// counts goals projected as of today, the same evaluation each row shows,
// rather than the flag stored at the last update.
func SummarizeGoals(goals []Goal, today Date) GoalStats {
	st := GoalStats{Total: len(goals)}
	var sum float64
	for _, g := range goals {
		if g.Project(today).OnTrack {
			st.OnTrack++
		}
		st.TotalCurrent = st.TotalCurrent.Add(g.Current)
		st.TotalTarget = st.TotalTarget.Add(g.Target)
		sum += g.Progress()
	}
	st.OverallProgress = percentOf(st.TotalCurrent.Cents, st.TotalTarget.Cents)
	if len(goals) > 0 {
		st.AverageProgress = Percent{Value: sum / float64(len(goals)) * 100, Valid: true}
	}
	return st
}
