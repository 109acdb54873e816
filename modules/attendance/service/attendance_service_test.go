package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/database/dbtest"
	"go-event-roster/core/errors"
	"go-event-roster/modules/attendance/dto"
	"go-event-roster/modules/event/catalog"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/venue/gateway"

	"github.com/google/uuid"
)

type recordingMarker struct {
	mu    sync.Mutex
	dirty []uuid.UUID
}

func (m *recordingMarker) MarkDirty(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = append(m.dirty, id)
}

func (m *recordingMarker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirty)
}

type fixture struct {
	svc    *AttendanceService
	repo   *repository.EventRepository
	venue  *gateway.LogGateway
	marker *recordingMarker
	clock  *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewEventRepository(dbtest.Open(t))
	venue := gateway.NewLogGateway()
	marker := &recordingMarker{}
	clk := clock.NewFake(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		svc:    NewAttendanceService(repo, marker, venue, clk),
		repo:   repo,
		venue:  venue,
		marker: marker,
		clock:  clk,
	}
}

func (f *fixture) createEvent(t *testing.T, mutate func(*entity.Event)) *entity.Event {
	t.Helper()
	start := f.clock.Now().Add(48 * time.Hour)
	event := &entity.Event{
		Title:       "Op Market Garden",
		Timezone:    "UTC",
		StartAt:     start,
		EndAt:       start.Add(3 * time.Hour),
		RoleCatalog: catalog.Default(),
		CreatorID:   "creator",
	}
	if mutate != nil {
		mutate(event)
	}
	if err := f.repo.Create(context.Background(), event); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return event
}

func (f *fixture) attendee(t *testing.T, eventID uuid.UUID, pid string) entity.Attendee {
	t.Helper()
	stored, err := f.repo.GetByID(context.Background(), eventID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	idx, ok := stored.Attendees.Find(pid)
	if !ok {
		t.Fatalf("attendee %s not stored", pid)
	}
	return stored.Attendees[idx]
}

func wantCode(t *testing.T, appErr *errors.AppError, code errors.ErrorCode) {
	t.Helper()
	if appErr == nil || appErr.Code != code {
		t.Fatalf("error = %v, want %s", appErr, code)
	}
}

func TestFullSelectionThenDeclineClearsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	res, appErr := f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	if appErr != nil {
		t.Fatalf("RecordResponse: %v", appErr)
	}
	if res.State != entity.StateAwaitingRole || len(res.Options) != 4 {
		t.Fatalf("after attending: state %s options %d", res.State, len(res.Options))
	}

	res, appErr = f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Infantry")
	if appErr != nil {
		t.Fatalf("SelectPrimaryRole: %v", appErr)
	}
	if res.State != entity.StateAwaitingSubRole {
		t.Fatalf("state = %s, want awaiting_sub_role", res.State)
	}

	res, appErr = f.svc.SelectSubRole(ctx, event.ID, "p1", nil, "Rifleman")
	if appErr != nil {
		t.Fatalf("SelectSubRole: %v", appErr)
	}
	if res.State != entity.StateConfirmed || res.Glyph == "" {
		t.Fatalf("after sub-role: %+v", res)
	}

	if _, appErr = f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPDeclined); appErr != nil {
		t.Fatalf("decline: %v", appErr)
	}
	a := f.attendee(t, event.ID, "p1")
	if a.Status != entity.RSVPDeclined || a.PrimaryRole != nil || a.SubRole != nil || a.Glyph != "" {
		t.Fatalf("declined attendee kept selection: %+v", a)
	}
	if f.marker.count() != 4 {
		t.Fatalf("MarkDirty called %d times, want 4", f.marker.count())
	}
}

func TestReattendingKeepsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Commander")

	res, appErr := f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	if appErr != nil {
		t.Fatalf("RecordResponse: %v", appErr)
	}
	if res.Changed || res.State != entity.StateConfirmed {
		t.Fatalf("repeat attending = %+v, want unchanged confirmed", res)
	}
	if f.marker.count() != 2 {
		t.Fatalf("no-op should not mark roster dirty, got %d marks", f.marker.count())
	}
}

func TestTentativeClearsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Armour")
	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPTentative)

	res, _ := f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	if res.State != entity.StateAwaitingRole {
		t.Fatalf("state = %s, want awaiting_role after tentative", res.State)
	}
}

func TestRoleReselectionClearsSubRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Infantry")
	f.svc.SelectSubRole(ctx, event.ID, "p1", nil, "Medic")

	res, appErr := f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Recon")
	if appErr != nil {
		t.Fatalf("SelectPrimaryRole: %v", appErr)
	}
	if res.SubRole != nil || res.State != entity.StateAwaitingSubRole {
		t.Fatalf("reselect = %+v, want sub-role cleared", res)
	}
	if len(res.Options) != 2 {
		t.Fatalf("options = %v, want Recon classes", res.Options)
	}
}

func TestSelectionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, func(e *entity.Event) {
		e.RoleCatalog[0].RequiredCredential = "officer"
	})

	_, appErr := f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Infantry")
	wantCode(t, appErr, errors.ErrNotFound)

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)

	_, appErr = f.svc.SelectSubRole(ctx, event.ID, "p1", nil, "Medic")
	wantCode(t, appErr, errors.ErrInvalidSubRole)

	_, appErr = f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Cavalry")
	wantCode(t, appErr, errors.ErrInvalidRole)

	_, appErr = f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Commander")
	wantCode(t, appErr, errors.ErrInvalidRole)

	if _, appErr = f.svc.SelectPrimaryRole(ctx, event.ID, "p1", entity.CredentialSet{"officer"}, "Commander"); appErr != nil {
		t.Fatalf("credentialed Commander: %v", appErr)
	}

	f.svc.SelectPrimaryRole(ctx, event.ID, "p1", nil, "Armour")
	_, appErr = f.svc.SelectSubRole(ctx, event.ID, "p1", nil, "Sniper")
	wantCode(t, appErr, errors.ErrInvalidSubRole)

	_, appErr = f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPStatus("maybe"))
	wantCode(t, appErr, errors.ErrInvalidInput)

	_, appErr = f.svc.RecordResponse(ctx, uuid.New(), "p1", nil, entity.RSVPAttending)
	wantCode(t, appErr, errors.ErrNotFound)
}

func TestRestrictedEventRequiresCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, func(e *entity.Event) {
		e.RestrictedRoles = entity.CredentialSet{"members"}
	})

	_, appErr := f.svc.RecordResponse(ctx, event.ID, "p1", entity.CredentialSet{"guests"}, entity.RSVPAttending)
	wantCode(t, appErr, errors.ErrForbidden)

	stored, _ := f.repo.GetByID(ctx, event.ID)
	if len(stored.Attendees) != 0 {
		t.Fatal("forbidden response was stored")
	}

	if _, appErr = f.svc.RecordResponse(ctx, event.ID, "p1", entity.CredentialSet{"members"}, entity.RSVPAttending); appErr != nil {
		t.Fatalf("member response: %v", appErr)
	}
}

func TestVenueMembershipFollowsAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venueID, _ := f.venue.CreateVenue(ctx, "Op")
	event := f.createEvent(t, func(e *entity.Event) {
		e.SetVenue(venueID, f.clock.Now())
	})

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPAttending)
	if !f.venue.IsMember(venueID, "p1") {
		t.Fatal("attending participant not added to open venue")
	}

	f.svc.RecordResponse(ctx, event.ID, "p1", nil, entity.RSVPDeclined)
	if f.venue.IsMember(venueID, "p1") {
		t.Fatal("declined participant still in venue")
	}
}

func TestArchivedEventRejectsResponses(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, func(e *entity.Event) { e.Archived = true })

	_, appErr := f.svc.RecordResponse(context.Background(), event.ID, "p1", nil, entity.RSVPAttending)
	wantCode(t, appErr, errors.ErrInvalidInput)
}

func TestHandleDispatchesActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	steps := []dto.IntakeRequest{
		{ParticipantID: "p1", Action: dto.ActionStatus, Value: "Attending"},
		{ParticipantID: "p1", Action: dto.ActionSelectRole, Value: "Recon"},
		{ParticipantID: "p1", Action: dto.ActionSelectSubRole, Value: "Sniper"},
	}
	var res *dto.AttendanceResponse
	for _, step := range steps {
		var appErr *errors.AppError
		res, appErr = f.svc.Handle(ctx, event.ID, &step)
		if appErr != nil {
			t.Fatalf("Handle(%s): %v", step.Action, appErr)
		}
	}
	if res.State != entity.StateConfirmed {
		t.Fatalf("state = %s, want confirmed", res.State)
	}

	_, appErr := f.svc.Handle(ctx, event.ID, &dto.IntakeRequest{ParticipantID: "p1", Action: "wave"})
	wantCode(t, appErr, errors.ErrInvalidInput)

	_, appErr = f.svc.Handle(ctx, event.ID, &dto.IntakeRequest{Action: dto.ActionStatus, Value: "attending"})
	wantCode(t, appErr, errors.ErrInvalidInput)
}

func TestSameParticipantPressesAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := entity.RSVPAttending
			if i%2 == 1 {
				status = entity.RSVPTentative
			}
			if _, appErr := f.svc.RecordResponse(ctx, event.ID, "p1", nil, status); appErr != nil {
				t.Errorf("RecordResponse: %v", appErr)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := f.repo.GetByID(ctx, event.ID)
	if len(stored.Attendees) != 1 {
		t.Fatalf("attendees = %d, want exactly one record", len(stored.Attendees))
	}
}

// deadlineRepo records whether store calls ran under a deadline.
type deadlineRepo struct {
	repository.EventRepositoryInterface
	mu       sync.Mutex
	deadline []bool
}

func (r *deadlineRepo) Mutate(ctx context.Context, id uuid.UUID, fn func(*entity.Event) error) (*entity.Event, error) {
	_, ok := ctx.Deadline()
	r.mu.Lock()
	r.deadline = append(r.deadline, ok)
	r.mu.Unlock()
	return r.EventRepositoryInterface.Mutate(ctx, id, fn)
}

func TestStoreCallsAreBounded(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, nil)
	repo := &deadlineRepo{EventRepositoryInterface: f.repo}
	svc := NewAttendanceService(repo, f.marker, f.venue, f.clock)

	if _, appErr := svc.RecordResponse(context.Background(), event.ID, "p1", nil, entity.RSVPAttending); appErr != nil {
		t.Fatalf("RecordResponse: %v", appErr)
	}
	if len(repo.deadline) == 0 {
		t.Fatal("Mutate not called")
	}
	for i, ok := range repo.deadline {
		if !ok {
			t.Fatalf("Mutate call %d ran without a deadline", i)
		}
	}
}
