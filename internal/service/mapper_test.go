package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultcal/internal/clients/caldav"
	"vaultcal/internal/domain"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

func TestToCalendarEventTimedDefaultsEndToOneHour(t *testing.T) {
	loc := moscow(t)

	rec := &domain.EventRecord{
		Name:      "Standup",
		Date:      "2024-05-01",
		StartTime: "10:00",
	}

	event, err := ToCalendarEvent(rec, loc)
	require.NoError(t, err)

	assert.False(t, event.AllDay)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, loc), event.StartTime)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, loc), event.EndTime)
	assert.True(t, strings.HasSuffix(event.UID, "@vaultcal"), "uid %q", event.UID)
	assert.Greater(t, len(event.UID), len("@vaultcal"))
}

func TestToCalendarEventTimedWithExplicitEnd(t *testing.T) {
	loc := moscow(t)

	rec := &domain.EventRecord{
		Name:      "Planning",
		Date:      "2024-05-01",
		StartTime: "10:00",
		EndTime:   "12:30",
	}

	event, err := ToCalendarEvent(rec, loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, loc), event.EndTime)
}

func TestToCalendarEventAllDaySpansOneDay(t *testing.T) {
	loc := moscow(t)

	// An end_time without a start_time does not make the event timed.
	rec := &domain.EventRecord{
		Name:    "Holiday",
		Date:    "2024-05-01",
		EndTime: "18:00",
	}

	event, err := ToCalendarEvent(rec, loc)
	require.NoError(t, err)

	assert.True(t, event.AllDay)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, loc), event.StartTime)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, loc), event.EndTime)
}

func TestToCalendarEventReusesGUID(t *testing.T) {
	rec := &domain.EventRecord{
		Name: "Dentist",
		Date: "2024-05-01",
		GUID: "existing-uid@vaultcal",
	}

	event, err := ToCalendarEvent(rec, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "existing-uid@vaultcal", event.UID)

	again, err := ToCalendarEvent(rec, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, event.UID, again.UID)
}

func TestToCalendarEventBadDate(t *testing.T) {
	_, err := ToCalendarEvent(&domain.EventRecord{Name: "x", Date: "01.05.2024"}, time.UTC)
	assert.Error(t, err)
}

func TestDraftFromCalendarEventTimed(t *testing.T) {
	loc := moscow(t)

	// 07:00 UTC is 10:00 in Moscow.
	event := &caldav.Event{
		UID:         "remote-1@server",
		Summary:     "Review",
		Description: "quarterly numbers",
		Location:    "Room 4",
		URL:         "https://cal.example/remote-1",
		StartTime:   time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
	}

	draft, err := DraftFromCalendarEvent(event, loc)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01", draft.Date)
	assert.Equal(t, "10:00", draft.StartTime)
	assert.Equal(t, "11:30", draft.EndTime)
	assert.Equal(t, "Review", draft.Name)
	assert.Equal(t, "quarterly numbers", draft.Description)
	assert.Equal(t, "Room 4", draft.Location)
	assert.Equal(t, "https://cal.example/remote-1", draft.URL)
	assert.Equal(t, "remote-1@server", draft.GUID)
}

func TestDraftFromCalendarEventTimedNoEnd(t *testing.T) {
	event := &caldav.Event{
		UID:       "remote-2@server",
		Summary:   "Call",
		StartTime: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	draft, err := DraftFromCalendarEvent(event, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "09:00", draft.StartTime)
	assert.Empty(t, draft.EndTime)
}

func TestDraftFromCalendarEventRejectsMultiDaySpan(t *testing.T) {
	event := &caldav.Event{
		UID:       "remote-3@server",
		Summary:   "Night shift",
		StartTime: time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 5, 2, 6, 0, 0, 0, time.UTC),
	}

	_, err := DraftFromCalendarEvent(event, time.UTC)
	assert.ErrorIs(t, err, ErrMultiDaySpan)
}

func TestDraftFromCalendarEventAllDayIgnoresSpan(t *testing.T) {
	// A remote all-day event spanning several days is still imported;
	// only timed multi-day events are rejected.
	event := &caldav.Event{
		UID:       "remote-4@server",
		Summary:   "Conference",
		AllDay:    true,
		StartTime: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
	}

	draft, err := DraftFromCalendarEvent(event, moscow(t))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", draft.Date)
	assert.Empty(t, draft.StartTime)
	assert.Empty(t, draft.EndTime)
}

func TestDraftSanitizesSummary(t *testing.T) {
	event := &caldav.Event{
		UID:       "remote-5@server",
		Summary:   `a/b\c:d`,
		AllDay:    true,
		StartTime: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	draft, err := DraftFromCalendarEvent(event, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "a_b_c_d", draft.Name)
}

func TestRoundTripPreservesFields(t *testing.T) {
	loc := moscow(t)

	rec := &domain.EventRecord{
		Name:        "Team lunch",
		Date:        "2024-05-01",
		StartTime:   "13:00",
		EndTime:     "14:00",
		Description: "new place on Arbat",
		Location:    "Arbat 12",
	}

	event, err := ToCalendarEvent(rec, loc)
	require.NoError(t, err)

	draft, err := DraftFromCalendarEvent(event, loc)
	require.NoError(t, err)

	assert.Equal(t, rec.Name, draft.Name)
	assert.Equal(t, rec.Date, draft.Date)
	assert.Equal(t, rec.StartTime, draft.StartTime)
	assert.Equal(t, rec.EndTime, draft.EndTime)
	assert.Equal(t, rec.Description, draft.Description)
	assert.Equal(t, rec.Location, draft.Location)
}
