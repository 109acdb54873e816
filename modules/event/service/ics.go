package service

import (
	"context"

	"go-event-roster/core/constants"
	"go-event-roster/core/errors"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ExportICS renders the event as a single-event iCalendar document.
func (s *EventService) ExportICS(ctx context.Context, id uuid.UUID) (string, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, appErr := s.load(ctx, id)
	if appErr != nil {
		return "", appErr
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//go-event-roster//events//EN")

	ve := cal.AddEvent(event.ID.String() + "@go-event-roster")
	ve.SetCreatedTime(event.CreatedAt)
	ve.SetDtStampTime(event.UpdatedAt)
	ve.SetModifiedAt(event.UpdatedAt)
	ve.SetStartAt(event.StartAt.UTC())
	ve.SetEndAt(event.EndAt.UTC())
	ve.SetSummary(event.Title)
	if event.Description != "" {
		ve.SetDescription(event.Description)
	}
	if event.Recurrence != nil && *event.Recurrence != "" {
		ve.SetProperty(ics.ComponentPropertyRrule, *event.Recurrence)
	}
	ve.SetStatus(ics.ObjectStatusConfirmed)

	return cal.Serialize(), nil
}
