package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-event-roster/core/database/dbtest"
	"go-event-roster/core/errors"
	"go-event-roster/core/params"
	"go-event-roster/modules/event/dto"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"

	"github.com/google/uuid"
)

type recordingLifecycle struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
	cancelled []uuid.UUID
}

func (l *recordingLifecycle) Schedule(_ context.Context, e *entity.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scheduled = append(l.scheduled, e.ID)
}

func (l *recordingLifecycle) Cancel(_ context.Context, id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelled = append(l.cancelled, id)
}

type recordingLocks struct {
	cleared []uuid.UUID
}

func (r *recordingLocks) Clear(_ context.Context, id uuid.UUID) error {
	r.cleared = append(r.cleared, id)
	return nil
}

var (
	creator = params.Actor{ID: "creator"}
	other   = params.Actor{ID: "other"}
	manager = params.Actor{ID: "boss", Manager: true}
)

func newService(t *testing.T) (*EventService, *recordingLifecycle, *recordingLocks) {
	t.Helper()
	lifecycle := &recordingLifecycle{}
	locks := &recordingLocks{}
	svc := NewEventService(repository.NewEventRepository(dbtest.Open(t)), Options{
		Lifecycle: lifecycle,
		Locks:     locks,
	})
	return svc, lifecycle, locks
}

func createRequest() *dto.CreateEventRequest {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	return &dto.CreateEventRequest{
		Title:            "Weekly Op",
		Timezone:         "Europe/Berlin",
		StartAt:          start,
		EndAt:            start.Add(3 * time.Hour),
		VenueLeadMinutes: 120,
		RestrictedRoles:  []string{" members ", "members", ""},
	}
}

func TestCreateEventDefaultsCatalogAndSchedules(t *testing.T) {
	svc, lifecycle, _ := newService(t)

	got, appErr := svc.CreateEvent(context.Background(), creator, createRequest())
	if appErr != nil {
		t.Fatalf("CreateEvent: %v", appErr)
	}
	if got.CreatorID != "creator" {
		t.Fatalf("CreatorID = %q, want creator", got.CreatorID)
	}
	if len(got.RoleCatalog) == 0 {
		t.Fatal("RoleCatalog not defaulted")
	}
	if len(got.RestrictedRoles) != 1 || got.RestrictedRoles[0] != "members" {
		t.Fatalf("RestrictedRoles = %v, want [members]", got.RestrictedRoles)
	}
	if got.VenueLeadMinutes != 120 {
		t.Fatalf("VenueLeadMinutes = %d, want 120", got.VenueLeadMinutes)
	}
	if len(lifecycle.scheduled) != 1 || lifecycle.scheduled[0].String() != got.ID {
		t.Fatalf("scheduled = %v, want the new event", lifecycle.scheduled)
	}
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _ := newService(t)

	tests := []struct {
		name   string
		mutate func(*dto.CreateEventRequest)
	}{
		{"empty title", func(r *dto.CreateEventRequest) { r.Title = " " }},
		{"end before start", func(r *dto.CreateEventRequest) { r.EndAt = r.StartAt.Add(-time.Minute) }},
		{"equal start and end", func(r *dto.CreateEventRequest) { r.EndAt = r.StartAt }},
		{"bad timezone", func(r *dto.CreateEventRequest) { r.Timezone = "Mars/Olympus" }},
		{"bad recurrence", func(r *dto.CreateEventRequest) { r.Recurrence = "FREQ=SOMETIMES" }},
		{"negative lead", func(r *dto.CreateEventRequest) { r.VenueLeadMinutes = -1 }},
		{"duplicate roles", func(r *dto.CreateEventRequest) {
			r.RoleCatalog = entity.RoleCatalog{{Name: "A"}, {Name: "A"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			tt.mutate(req)
			_, appErr := svc.CreateEvent(context.Background(), creator, req)
			if appErr == nil || appErr.Code != errors.ErrInvalidInput {
				t.Fatalf("CreateEvent = %v, want INVALID_INPUT", appErr)
			}
		})
	}
}

func TestUpdateEventPermissions(t *testing.T) {
	svc, lifecycle, _ := newService(t)
	ctx := context.Background()

	created, _ := svc.CreateEvent(ctx, creator, createRequest())
	id := uuid.MustParse(created.ID)
	title := "Renamed"

	if _, appErr := svc.UpdateEvent(ctx, other, id, &dto.UpdateEventRequest{Title: &title}); appErr == nil || appErr.Code != errors.ErrForbidden {
		t.Fatalf("UpdateEvent by other = %v, want FORBIDDEN", appErr)
	}

	updated, appErr := svc.UpdateEvent(ctx, manager, id, &dto.UpdateEventRequest{Title: &title})
	if appErr != nil {
		t.Fatalf("UpdateEvent by manager: %v", appErr)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("Title = %q, want Renamed", updated.Title)
	}
	if len(lifecycle.scheduled) != 2 {
		t.Fatalf("Schedule calls = %d, want 2 (create + update)", len(lifecycle.scheduled))
	}
}

func TestUpdateEventRejectsInvertedWindow(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, _ := svc.CreateEvent(ctx, creator, createRequest())
	id := uuid.MustParse(created.ID)
	end := created.StartAt.Add(-time.Hour)

	_, appErr := svc.UpdateEvent(ctx, creator, id, &dto.UpdateEventRequest{EndAt: &end})
	if appErr == nil || appErr.Code != errors.ErrInvalidInput {
		t.Fatalf("UpdateEvent = %v, want INVALID_INPUT", appErr)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	svc, lifecycle, locks := newService(t)
	ctx := context.Background()

	created, _ := svc.CreateEvent(ctx, creator, createRequest())
	id := uuid.MustParse(created.ID)

	if appErr := svc.DeleteEvent(ctx, other, id); appErr == nil || appErr.Code != errors.ErrForbidden {
		t.Fatalf("DeleteEvent by other = %v, want FORBIDDEN", appErr)
	}
	if appErr := svc.DeleteEvent(ctx, creator, id); appErr != nil {
		t.Fatalf("DeleteEvent: %v", appErr)
	}
	if len(lifecycle.cancelled) != 1 || len(locks.cleared) != 1 {
		t.Fatalf("cancelled=%v cleared=%v, want one each", lifecycle.cancelled, locks.cleared)
	}
	if _, appErr := svc.GetEvent(ctx, id); appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Fatalf("GetEvent after delete = %v, want NOT_FOUND", appErr)
	}
}

func TestExportICS(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := createRequest()
	req.Recurrence = "FREQ=WEEKLY;BYDAY=SA"
	created, _ := svc.CreateEvent(ctx, creator, req)

	out, appErr := svc.ExportICS(ctx, uuid.MustParse(created.ID))
	if appErr != nil {
		t.Fatalf("ExportICS: %v", appErr)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Weekly Op", "RRULE:FREQ=WEEKLY;BYDAY=SA", created.ID} {
		if !strings.Contains(out, want) {
			t.Fatalf("ics missing %q:\n%s", want, out)
		}
	}
}

func TestListEventsMine(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.CreateEvent(ctx, creator, createRequest())
	_, _ = svc.CreateEvent(ctx, other, createRequest())

	page, appErr := svc.ListEvents(ctx, creator, dto.ListEventsQuery{Mine: true, Page: 1, PageSize: 10})
	if appErr != nil {
		t.Fatalf("ListEvents: %v", appErr)
	}
	if page.TotalItems != 1 || page.Items[0].CreatorID != "creator" {
		t.Fatalf("page = %+v, want only creator's event", page)
	}
}
