package service

import (
	"context"
	"testing"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/database/dbtest"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
)

func TestEngagement(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEventRepository(dbtest.Open(t))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mk := func(start time.Time, archived bool, attendees entity.Attendees) {
		e := &entity.Event{Title: "Op", StartAt: start, EndAt: start.Add(time.Hour), CreatorID: "c", Archived: archived, Attendees: attendees}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	mk(now.Add(-10*24*time.Hour), true, entity.Attendees{
		{ParticipantID: "p1", Status: entity.RSVPAttending, RespondedAt: now.Add(-12 * 24 * time.Hour)},
		{ParticipantID: "p2", Status: entity.RSVPDeclined, RespondedAt: now.Add(-11 * 24 * time.Hour)},
	})
	mk(now.Add(24*time.Hour), false, entity.Attendees{
		{ParticipantID: "p1", Status: entity.RSVPAttending, RespondedAt: now.Add(-3 * 24 * time.Hour)},
		{ParticipantID: "p2", Status: entity.RSVPTentative, RespondedAt: now.Add(-36 * time.Hour)},
	})

	svc := NewStatsService(repo, clock.NewFake(now))
	res, appErr := svc.Engagement(ctx)
	if appErr != nil {
		t.Fatalf("Engagement: %v", appErr)
	}
	if res.Events != 2 || len(res.Participants) != 2 {
		t.Fatalf("res = %+v", res)
	}

	p1, p2 := res.Participants[0], res.Participants[1]
	if p1.ParticipantID != "p1" || p1.Accepted != 2 || p1.DaysSince != 3 {
		t.Fatalf("p1 = %+v", p1)
	}
	if p2.Tentative != 1 || p2.Declined != 1 || p2.DaysSince != 1 {
		t.Fatalf("p2 = %+v", p2)
	}
}
