package service

import (
	"context"
	"sort"

	"go-event-roster/core/clock"
	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/stats/dto"
)

type StatsService struct {
	repo  repository.EventRepositoryInterface
	clock clock.Clock
}

type StatsServiceInterface interface {
	Engagement(ctx context.Context) (*dto.EngagementResponse, *errors.AppError)
}

func NewStatsService(repo repository.EventRepositoryInterface, clk clock.Clock) *StatsService {
	if clk == nil {
		clk = clock.Real()
	}
	return &StatsService{repo: repo, clock: clk}
}

// Engagement tallies every participant's responses across all events,
// archived ones included. Most accepted first.
func (s *StatsService) Engagement(ctx context.Context) (*dto.EngagementResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	events, err := s.repo.ListAll(ctx)
	if err != nil {
		logger.Error("StatsService:Engagement", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load events", err)
	}

	byID := make(map[string]*dto.ParticipantEngagement)
	for _, e := range events {
		for _, a := range e.Attendees {
			p, ok := byID[a.ParticipantID]
			if !ok {
				p = &dto.ParticipantEngagement{ParticipantID: a.ParticipantID}
				byID[a.ParticipantID] = p
			}
			switch a.Status {
			case entity.RSVPAttending:
				p.Accepted++
			case entity.RSVPTentative:
				p.Tentative++
			case entity.RSVPDeclined:
				p.Declined++
			}
			if a.RespondedAt.After(p.LastResponseAt) {
				p.LastResponseAt = a.RespondedAt
			}
		}
	}

	now := s.clock.Now()
	out := make([]dto.ParticipantEngagement, 0, len(byID))
	for _, p := range byID {
		if !p.LastResponseAt.IsZero() && now.After(p.LastResponseAt) {
			p.DaysSince = int(now.Sub(p.LastResponseAt).Hours() / 24)
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accepted != out[j].Accepted {
			return out[i].Accepted > out[j].Accepted
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})

	return &dto.EngagementResponse{Events: len(events), Participants: out}, nil
}
