package caldav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const (
	// Yandex Calendar CalDAV endpoint
	DefaultYandexURL = "https://caldav.yandex.ru"

	// ProductID identifies generated ICS payloads
	ProductID = "-//Example Corp.//CalDAV Client//EN"

	// uidNamespace is the fixed suffix of locally generated event UIDs
	uidNamespace = "vaultcal"
)

// Client is a CalDAV client for a single calendar collection
type Client struct {
	endpoint       *url.URL // scheme://host of the CalDAV server
	collectionPath string   // calendar collection path, trailing slash normalized
	username       string
	password       string
	client         *caldav.Client
}

// NewClient creates a new CalDAV client for the given calendar collection URL
func NewClient(calendarURL, username, password string) (*Client, error) {
	if calendarURL == "" {
		calendarURL = DefaultYandexURL
	}

	u, err := url.Parse(calendarURL)
	if err != nil {
		return nil, fmt.Errorf("parse calendar URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("calendar URL %q has no scheme or host", calendarURL)
	}

	path := u.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return &Client{
		endpoint:       &url.URL{Scheme: u.Scheme, Host: u.Host},
		collectionPath: path,
		username:       username,
		password:       password,
	}, nil
}

// IsConfigured returns true if the client has credentials
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// connect establishes connection to the CalDAV server
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// Publish stores the event in the collection and reads back the stored
// object to capture the server-confirmed UID and URL. A failed read-back
// after a successful store is reported as an error: the caller must not
// assume the event landed until it has been verified.
func (c *Client) Publish(ctx context.Context, event *Event) (*PublishInfo, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	if event.UID == "" {
		return nil, fmt.Errorf("event has no UID")
	}

	path := c.collectionPath + event.UID + ".ics"
	cal := eventToICS(event, time.Now().UTC())

	if _, err := client.PutCalendarObject(ctx, path, cal); err != nil {
		return nil, fmt.Errorf("put event: %w", err)
	}

	obj, err := client.GetCalendarObject(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("verify event: %w", err)
	}

	stored, err := parseCalendar(obj.Data)
	if err != nil {
		return nil, fmt.Errorf("verify event: %w", err)
	}

	info := &PublishInfo{UID: stored.UID, URL: stored.URL}
	if info.UID == "" {
		info.UID = event.UID
	}
	if info.URL == "" {
		info.URL = c.absoluteURL(obj.Path, path)
	}
	return info, nil
}

// FetchCollection returns all events in the calendar collection
func (c *Client) FetchCollection(ctx context.Context) ([]Event, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{Name: "VEVENT"},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, c.collectionPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []Event
	for i := range objects {
		event, err := parseCalendar(objects[i].Data)
		if err != nil || event.UID == "" {
			continue // Skip invalid events
		}
		if event.URL == "" {
			event.URL = c.absoluteURL(objects[i].Path, "")
		}
		events = append(events, *event)
	}

	return events, nil
}

func (c *Client) absoluteURL(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	u := *c.endpoint
	u.Path = path
	return u.String()
}

// parseCalendar extracts the first VEVENT of a calendar into an Event
func parseCalendar(cal *ical.Calendar) (*Event, error) {
	if cal == nil {
		return nil, fmt.Errorf("no data in calendar object")
	}

	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		event := &Event{}

		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			event.UID = prop.Value
		}
		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			event.Summary = prop.Value
		}
		if prop := comp.Props.Get(ical.PropDescription); prop != nil {
			event.Description = prop.Value
		}
		if prop := comp.Props.Get(ical.PropLocation); prop != nil {
			event.Location = prop.Value
		}
		if prop := comp.Props.Get(ical.PropURL); prop != nil {
			event.URL = prop.Value
		}

		if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
			if t, err := prop.DateTime(time.UTC); err == nil {
				event.StartTime = t
			}
			if valueType := prop.Params.Get(ical.ParamValue); valueType == string(ical.ValueDate) {
				event.AllDay = true
			}
		}
		if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
			if t, err := prop.DateTime(time.UTC); err == nil {
				event.EndTime = t
			}
		}

		return event, nil // Only process first VEVENT
	}

	return nil, fmt.Errorf("no VEVENT in calendar object")
}

// eventToICS converts an Event to iCalendar format
func eventToICS(event *Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.UID)
	vevent.Props.SetText(ical.PropSummary, event.Summary)

	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		vevent.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.URL != "" {
		vevent.Props.SetText(ical.PropURL, event.URL)
	}

	if event.AllDay {
		vevent.Props.SetDate(ical.PropDateTimeStart, event.StartTime)
		vevent.Props.SetDate(ical.PropDateTimeEnd, event.EndTime)
	} else {
		// Convert to UTC explicitly - iCalendar will use Z suffix
		vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())
	}

	vevent.Props.SetDateTime(ical.PropCreated, now)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// NewUID generates a globally unique event identifier with the
// fixed local namespace suffix
func NewUID() string {
	return uuid.NewString() + "@" + uidNamespace
}

// SerializeCalendar converts calendar to its ICS text form
func SerializeCalendar(cal *ical.Calendar) string {
	var buf bytes.Buffer
	enc := ical.NewEncoder(&buf)
	_ = enc.Encode(cal)
	return buf.String()
}
