package service

import (
	"context"
	"fmt"
	"time"

	"go-event-roster/core/logger"
	"go-event-roster/modules/event/entity"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
)

// NextOccurrence returns the next start of e's series after e.StartAt, or
// false when the rule is exhausted. The rule is evaluated in the event's
// timezone so wall-clock start times survive DST changes.
func NextOccurrence(e *entity.Event) (time.Time, bool, error) {
	if e.Recurrence == nil || *e.Recurrence == "" {
		return time.Time{}, false, nil
	}
	rule, err := rrule.StrToRRule(*e.Recurrence)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse recurrence: %w", err)
	}
	start := e.StartAt.In(e.Location())
	rule.DTStart(start)

	next := rule.After(start, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next.UTC(), true, nil
}

// remainingRule returns the rule a successor carries. Each event evaluates
// its rule from its own start, so a COUNT is reduced by the occurrence
// prev consumed; without that a counted series would never run out.
func remainingRule(rule string) (string, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return "", fmt.Errorf("parse recurrence: %w", err)
	}
	if opt.Count == 0 {
		return rule, nil
	}
	opt.Count--
	return opt.RRuleString(), nil
}

// nextEvent copies the schedule and configuration of prev into a fresh,
// unopened event starting at start and repeating by rule.
func nextEvent(prev *entity.Event, start time.Time, rule string) *entity.Event {
	c := prev.Clone()
	parent := prev.ID
	return &entity.Event{
		Title:            c.Title,
		Description:      c.Description,
		Timezone:         c.Timezone,
		StartAt:          start,
		EndAt:            start.Add(prev.EndAt.Sub(prev.StartAt)),
		VenueLeadSeconds: c.VenueLeadSeconds,
		RestrictedRoles:  c.RestrictedRoles,
		RoleCatalog:      c.RoleCatalog,
		Recurrence:       &rule,
		SeriesParentID:   &parent,
		CreatorID:        c.CreatorID,
	}
}

// SpawnNextOccurrences creates the successor of every closed recurring event
// that has none yet and schedules it. Failures are isolated per series.
func (s *SchedulerService) SpawnNextOccurrences(ctx context.Context) (int, error) {
	events, err := s.repo.ListRecurringWithoutSuccessor(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring events: %w", err)
	}

	created := 0
	for i := range events {
		prev := &events[i]
		start, ok, err := NextOccurrence(prev)
		if err != nil {
			logger.Warn("SchedulerService:SpawnNextOccurrences:Rule", "event_id", prev.ID.String(), "error", err)
			continue
		}
		if !ok {
			continue
		}

		rule, err := remainingRule(*prev.Recurrence)
		if err != nil {
			logger.Warn("SchedulerService:SpawnNextOccurrences:Rule", "event_id", prev.ID.String(), "error", err)
			continue
		}

		next := nextEvent(prev, start, rule)
		if err := s.repo.Create(ctx, next); err != nil {
			logger.Error("SchedulerService:SpawnNextOccurrences:Create", "event_id", prev.ID.String(), "error", err)
			continue
		}
		s.Schedule(ctx, next)
		created++
		logger.Info("SchedulerService:SpawnNextOccurrences", "parent_id", prev.ID.String(), "event_id", next.ID.String(), "start_at", start)
	}
	return created, nil
}

// NewRecurrenceCron runs SpawnNextOccurrences on spec. The caller starts and
// stops the returned cron.
func NewRecurrenceCron(s SchedulerServiceInterface, spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.SpawnNextOccurrences(ctx); err != nil {
			logger.Error("Scheduler:RecurrenceCron", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("recurrence cron spec %q: %w", spec, err)
	}
	return c, nil
}
