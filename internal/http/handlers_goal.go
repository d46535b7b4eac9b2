package http

import (
	"fmt"
	"net/http"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

type goalRow struct {
	core.Goal
	Projection core.GoalProjection
}

type goalsView struct {
	Goals      []goalRow
	Stats      core.GoalStats
	Categories []core.GoalCategory
	Today      string
}

func (s *Server) handleGoalsPartial(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), session.UserID(r))
	if err != nil {
		s.respondError(w, r, err, log.OpList)
		return
	}

	today := s.goals.Today()
	view := goalsView{
		Stats:      core.SummarizeGoals(goals, today),
		Categories: core.GoalCategories(),
		Today:      today.String(),
	}
	for _, g := range goals {
		view.Goals = append(view.Goals, goalRow{
			Goal:       g,
			Projection: g.Project(today),
		})
	}
	s.render(w, r, "goals.html", view)
}

func parseNewGoal(p *RequestBodyParser) (core.NewGoal, error) {
	var n core.NewGoal

	target, err := parseAmount("target", p.Get("target"))
	if err != nil {
		return n, err
	}
	current, err := parseNonNegativeAmount("current", p.Get("current"))
	if err != nil {
		return n, err
	}
	deadline, err := core.ParseDate(p.Get("deadline"))
	if err != nil {
		return n, err
	}
	category, err := core.ParseGoalCategory(p.Get("category"))
	if err != nil {
		return n, err
	}

	return core.NewGoal{
		Name:     p.Get("name"),
		Target:   target,
		Current:  current,
		Deadline: deadline,
		Category: category,
	}, nil
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	n, err := parseNewGoal(p)
	if err != nil {
		s.respondError(w, r, err, log.OpCreate)
		return
	}
	g, err := s.goals.Add(r.Context(), session.UserID(r), n)
	if err != nil {
		s.respondError(w, r, err, log.OpCreate)
		return
	}
	s.metrics.goalChanges.Add(1)

	NewHTMXResponse().
		TriggerGoalsChanged().
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Goal %q added", g.Name)).
		Write(w)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	id := p.Get("id")
	if id == "" {
		s.respondError(w, r, core.Invalid("id", core.ErrEmptyName), log.OpUpdate)
		return
	}
	current, err := parseNonNegativeAmount("current", p.Get("current"))
	if err != nil {
		s.respondError(w, r, err, log.OpUpdate)
		return
	}
	g, err := s.goals.UpdateProgress(r.Context(), session.UserID(r), id, current)
	if err != nil {
		s.respondError(w, r, err, log.OpUpdate)
		return
	}
	s.metrics.goalChanges.Add(1)

	msg := fmt.Sprintf("Progress for %q updated", g.Name)
	if g.Current.Cents >= g.Target.Cents {
		msg = fmt.Sprintf("Goal %q reached", g.Name)
	}
	NewHTMXResponse().
		TriggerGoalsChanged().
		TriggerSuccessNotification(msg).
		Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	id := p.Get("id")
	if id == "" {
		s.respondError(w, r, core.Invalid("id", core.ErrEmptyName), log.OpDelete)
		return
	}
	if err := s.goals.Delete(r.Context(), session.UserID(r), id); err != nil {
		s.respondError(w, r, err, log.OpDelete)
		return
	}
	s.metrics.goalChanges.Add(1)

	NewHTMXResponse().
		TriggerGoalsChanged().
		TriggerSuccessNotification("Goal deleted").
		Write(w)
}
