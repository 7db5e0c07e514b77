package service

import (
	"errors"
	"fmt"
	"time"

	"vaultcal/internal/clients/caldav"
	"vaultcal/internal/domain"
	"vaultcal/internal/vault"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ErrMultiDaySpan is returned for timed remote events whose end falls on
// a different calendar day than the start. Those are not supported as
// local event notes.
var ErrMultiDaySpan = errors.New("timed event spans multiple calendar days")

// ToCalendarEvent maps a local event record to a calendar event.
// A record with no GUID gets a freshly generated UID; persisting it back
// onto the record is the caller's job, and only after a confirmed push.
// Timed records become DATE-TIME events (end defaults to start+1h);
// untimed records become all-day events spanning exactly one day.
func ToCalendarEvent(rec *domain.EventRecord, loc *time.Location) (*caldav.Event, error) {
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation(dateLayout, rec.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", rec.Date, err)
	}

	event := &caldav.Event{
		UID:         rec.GUID,
		Summary:     rec.Name,
		Description: rec.Description,
		Location:    rec.Location,
		URL:         rec.URL,
	}
	if event.UID == "" {
		event.UID = caldav.NewUID()
	}

	if !rec.Timed() {
		event.AllDay = true
		event.StartTime = day
		event.EndTime = day.AddDate(0, 0, 1)
		return event, nil
	}

	start, err := onDay(day, rec.StartTime)
	if err != nil {
		return nil, err
	}
	event.StartTime = start

	if rec.EndTime != "" {
		end, err := onDay(day, rec.EndTime)
		if err != nil {
			return nil, err
		}
		event.EndTime = end
	} else {
		event.EndTime = start.Add(time.Hour)
	}

	return event, nil
}

// DraftFromCalendarEvent maps a remote event with no local counterpart
// to a draft for a new event note
func DraftFromCalendarEvent(event *caldav.Event, loc *time.Location) (*domain.EventDraft, error) {
	if loc == nil {
		loc = time.UTC
	}

	start := event.StartTime
	if !event.AllDay {
		start = start.In(loc)
	}

	draft := &domain.EventDraft{
		Name:        vault.SanitizeName(event.Summary),
		Date:        start.Format(dateLayout),
		Description: event.Description,
		Location:    event.Location,
		URL:         event.URL,
		GUID:        event.UID,
	}

	if event.AllDay {
		return draft, nil
	}

	draft.StartTime = start.Format(clockLayout)
	if !event.EndTime.IsZero() {
		end := event.EndTime.In(loc)
		if end.Format(dateLayout) != draft.Date {
			return nil, ErrMultiDaySpan
		}
		draft.EndTime = end.Format(clockLayout)
	}

	return draft, nil
}

// onDay combines a calendar day with an HH:mm clock value in the day's location
func onDay(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
