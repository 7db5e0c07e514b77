package caldav

import "time"

// Event represents a single calendar event (VEVENT)
type Event struct {
	UID         string // Unique ID in CalDAV
	Summary     string // Title
	Description string
	Location    string
	URL         string // Resource URL assigned by the server
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool // DATE-typed start/end, no time-of-day
}

// PublishInfo carries the server-confirmed identifiers read back
// after a successful publish
type PublishInfo struct {
	UID string
	URL string
}
