package repository

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"go-event-roster/core/database/dbtest"
	"go-event-roster/modules/event/catalog"
	"go-event-roster/modules/event/entity"

	"github.com/google/uuid"
)

func newTestEvent(start time.Time) *entity.Event {
	return &entity.Event{
		Title:            "Op Overlord",
		Timezone:         "Europe/London",
		StartAt:          start,
		EndAt:            start.Add(2 * time.Hour),
		VenueLeadSeconds: 3600,
		RoleCatalog:      catalog.Default(),
		CreatorID:        "creator-1",
	}
}

func openRepo(t *testing.T) *EventRepository {
	t.Helper()
	return NewEventRepository(dbtest.Open(t))
}

func TestCreateAndGetRoundTripsNestedFields(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	event := newTestEvent(start)
	role := "Infantry"
	sub := "Medic"
	event.RestrictedRoles = entity.CredentialSet{"members"}
	event.Attendees = entity.Attendees{{
		ParticipantID: "p1",
		Status:        entity.RSVPAttending,
		PrimaryRole:   &role,
		SubRole:       &sub,
		Glyph:         "+",
		RespondedAt:   start.Add(-time.Hour),
	}}

	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.ID == uuid.Nil {
		t.Fatal("Create did not assign an id")
	}

	got, err := repo.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}
	if !got.StartAt.Equal(start) {
		t.Fatalf("StartAt = %v, want %v", got.StartAt, start)
	}
	if len(got.Attendees) != 1 || *got.Attendees[0].SubRole != "Medic" {
		t.Fatalf("Attendees = %+v, want one Medic", got.Attendees)
	}
	if !got.RestrictedRoles.Contains("members") {
		t.Fatalf("RestrictedRoles = %v, want members", got.RestrictedRoles)
	}
	if len(got.RoleCatalog) != len(event.RoleCatalog) {
		t.Fatalf("RoleCatalog len = %d, want %d", len(got.RoleCatalog), len(event.RoleCatalog))
	}
	if got.Version != 1 {
		t.Fatalf("Version = %d, want 1", got.Version)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	repo := openRepo(t)

	got, err := repo.GetByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByID = %+v, want nil", got)
	}
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	event := newTestEvent(time.Now().Add(24 * time.Hour))
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, _ := repo.GetByID(ctx, event.ID)
	second, _ := repo.GetByID(ctx, event.ID)

	first.Title = "first"
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("Version after update = %d, want 2", first.Version)
	}

	second.Title = "second"
	if err := repo.Update(ctx, second); !stdErrors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale Update error = %v, want ErrVersionConflict", err)
	}
}

func TestUpdateMissingEvent(t *testing.T) {
	repo := openRepo(t)

	event := newTestEvent(time.Now())
	event.ID = uuid.New()
	event.Version = 1
	if err := repo.Update(context.Background(), event); !stdErrors.Is(err, ErrEventNotFound) {
		t.Fatalf("Update error = %v, want ErrEventNotFound", err)
	}
}

func TestMutateRetriesOnceAfterConflict(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	event := newTestEvent(time.Now().Add(24 * time.Hour))
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	calls := 0
	got, err := repo.Mutate(ctx, event.ID, func(e *entity.Event) error {
		calls++
		if calls == 1 {
			// A competing writer commits between our read and our write.
			other, _ := repo.GetByID(ctx, event.ID)
			other.Description = "competing"
			if err := repo.Update(ctx, other); err != nil {
				t.Fatalf("competing Update: %v", err)
			}
		}
		e.Title = "mutated"
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fn calls = %d, want 2", calls)
	}
	if got.Title != "mutated" || got.Description != "competing" {
		t.Fatalf("event = %q/%q, want mutated/competing", got.Title, got.Description)
	}
}

func TestMutateSurfacesSecondConflict(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	event := newTestEvent(time.Now().Add(24 * time.Hour))
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := repo.Mutate(ctx, event.ID, func(e *entity.Event) error {
		other, _ := repo.GetByID(ctx, event.ID)
		other.Description = other.Description + "x"
		if err := repo.Update(ctx, other); err != nil {
			t.Fatalf("competing Update: %v", err)
		}
		e.Title = "never"
		return nil
	})
	if !stdErrors.Is(err, ErrVersionConflict) {
		t.Fatalf("Mutate error = %v, want ErrVersionConflict", err)
	}
}

func TestMutateRejectsInvariantViolation(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	event := newTestEvent(time.Now().Add(24 * time.Hour))
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := repo.Mutate(ctx, event.ID, func(e *entity.Event) error {
		role := "Infantry"
		e.Attendees = append(e.Attendees, entity.Attendee{
			ParticipantID: "p1",
			Status:        entity.RSVPDeclined,
			PrimaryRole:   &role,
		})
		return nil
	})
	if err == nil {
		t.Fatal("Mutate accepted a declined attendee with a role")
	}

	stored, _ := repo.GetByID(ctx, event.ID)
	if len(stored.Attendees) != 0 {
		t.Fatalf("stored attendees = %d, want 0", len(stored.Attendees))
	}
}

func TestListRecurringWithoutSuccessor(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	rule := "FREQ=WEEKLY"

	parent := newTestEvent(time.Now().Add(-7 * 24 * time.Hour))
	parent.Recurrence = &rule
	parent.Archived = true
	if err := repo.Create(ctx, parent); err != nil {
		t.Fatalf("Create parent: %v", err)
	}

	lonely := newTestEvent(time.Now().Add(-14 * 24 * time.Hour))
	lonely.Recurrence = &rule
	lonely.Archived = true
	if err := repo.Create(ctx, lonely); err != nil {
		t.Fatalf("Create lonely: %v", err)
	}

	child := newTestEvent(time.Now())
	child.Recurrence = &rule
	child.SeriesParentID = &parent.ID
	if err := repo.Create(ctx, child); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	got, err := repo.ListRecurringWithoutSuccessor(ctx)
	if err != nil {
		t.Fatalf("ListRecurringWithoutSuccessor: %v", err)
	}
	if len(got) != 1 || got[0].ID != lonely.ID {
		t.Fatalf("got %d events, want only %s", len(got), lonely.ID)
	}
}

func TestListActiveSkipsArchived(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	active := newTestEvent(time.Now())
	archived := newTestEvent(time.Now())
	archived.Archived = true
	for _, e := range []*entity.Event{active, archived} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("ListActive = %d events, want only the active one", len(got))
	}

	page, err := repo.List(ctx, ListFilter{IncludeArchived: true, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 2 {
		t.Fatalf("TotalItems = %d, want 2", page.TotalItems)
	}
}

func TestDelete(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	event := newTestEvent(time.Now())
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}
	deleted, err := repo.Delete(ctx, event.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(ctx, event.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
	}
}
