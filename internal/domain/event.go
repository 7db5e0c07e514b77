package domain

import "time"

// Frontmatter keys used by event notes.
const (
	MetaType      = "type"
	MetaDate      = "date"
	MetaStartTime = "start_time"
	MetaEndTime   = "end_time"
	MetaLocation  = "location"
	MetaURL       = "url"
	MetaGUID      = "guid"
)

// TypeEvent marks a note as sync-eligible.
const TypeEvent = "event"

// EventRecord is a local event note loaded from the vault
type EventRecord struct {
	Path        string // note path on disk
	Name        string // note name without extension, used as the event summary
	Date        string // YYYY-MM-DD, required
	StartTime   string // HH:mm, empty for all-day events
	EndTime     string // HH:mm
	Description string // note body
	Location    string
	URL         string // remote resource URL, set after first successful sync
	GUID        string // stable identifier, empty until first sync
}

// Timed returns true if the record carries a time-of-day
func (r *EventRecord) Timed() bool {
	return r.StartTime != ""
}

// EventDraft describes a new event note to be created in the vault,
// built from a remote calendar event that has no local counterpart.
type EventDraft struct {
	Name        string
	Date        string
	StartTime   string
	EndTime     string
	Description string
	Location    string
	URL         string
	GUID        string
}

// Metadata returns the frontmatter map for the new note
func (d *EventDraft) Metadata() map[string]any {
	return map[string]any{
		MetaType:      TypeEvent,
		MetaDate:      d.Date,
		MetaStartTime: d.StartTime,
		MetaEndTime:   d.EndTime,
		MetaLocation:  d.Location,
		MetaURL:       d.URL,
		MetaGUID:      d.GUID,
	}
}

// SyncPass is the aggregate result of one full reconciliation pass
type SyncPass struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Pushed     int // local records published successfully
	Failed     int // local records whose push failed
	Imported   int // remote events materialized as new notes
	Skipped    int // remote events rejected as unsupported
	Errors     []string
}

// Duration returns the wall time the pass took
func (p *SyncPass) Duration() time.Duration {
	return p.FinishedAt.Sub(p.StartedAt)
}
