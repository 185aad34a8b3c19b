package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// ErrEventNotFound means the referenced event no longer exists.
var ErrEventNotFound = errors.New("calendar event not found")

const primaryCalendar = "primary"

// EventAttendee is one invitee on an event.
type EventAttendee struct {
	Email       string
	DisplayName string
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	ColorID     string
	Attendees   []EventAttendee
}

// EventPatch carries only the fields an update should touch; nil means
// leave the field as it is. Attendees, when non-nil, is the full merged
// list (the API replaces, it does not append).
type EventPatch struct {
	Summary   *string
	StartTime *time.Time
	EndTime   *time.Time
	Location  *string
	ColorID   *string
	Attendees []EventAttendee
}

// IsEmpty reports whether the patch would touch nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Summary == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Location == nil && p.ColorID == nil && p.Attendees == nil
}

// EventDetails is one calendar event as the rest of the system sees it.
type EventDetails struct {
	ID          string
	Summary     string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	ColorID     string
	Attendees   []EventAttendee
	HTMLLink    string
}

// normalize classifies an API error; an auth-required outcome clears the
// stored token bundle so "authenticated" stays truthful.
func (c *Client) normalize(userID int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthRequired) {
		return err
	}
	if OutcomeOf(err) == OutcomeAuthRequired {
		_ = c.tokens.ClearGoogleToken(userID)
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return err
}

func eventDateTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.Format("2006-01-02")}
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
}

func toAPIAttendees(attendees []EventAttendee) []*calendar.EventAttendee {
	out := make([]*calendar.EventAttendee, len(attendees))
	for i, a := range attendees {
		out[i] = &calendar.EventAttendee{Email: a.Email, DisplayName: a.DisplayName}
	}
	return out
}

func fromAPIEvent(item *calendar.Event) (EventDetails, error) {
	details := EventDetails{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		ColorID:     item.ColorId,
		HTMLLink:    item.HtmlLink,
	}

	if item.Start == nil || item.End == nil {
		return details, fmt.Errorf("event %s is missing start or end", item.Id)
	}

	// All-day events use Date instead of DateTime.
	if item.Start.Date != "" {
		start, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return details, fmt.Errorf("failed to parse all-day start: %w", err)
		}
		end, err := time.Parse("2006-01-02", item.End.Date)
		if err != nil {
			return details, fmt.Errorf("failed to parse all-day end: %w", err)
		}
		details.StartTime = start
		details.EndTime = end
		details.AllDay = true
	} else {
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return details, fmt.Errorf("failed to parse start datetime: %w", err)
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return details, fmt.Errorf("failed to parse end datetime: %w", err)
		}
		details.StartTime = start
		details.EndTime = end
	}

	for _, a := range item.Attendees {
		if a.Self {
			continue
		}
		details.Attendees = append(details.Attendees, EventAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}

	return details, nil
}

// SearchEvents runs a free-text search over the window [from, to).
func (c *Client) SearchEvents(ctx context.Context, userID int64, query string, from, to time.Time, max int64) ([]EventDetails, error) {
	service, err := c.serviceFor(ctx, userID)
	if err != nil {
		return nil, c.normalize(userID, err)
	}

	if max <= 0 {
		max = 25
	}

	call := service.Events.List(primaryCalendar).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(max).
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}

	result, err := call.Do()
	if err != nil {
		return nil, c.normalize(userID, fmt.Errorf("failed to search events: %w", err))
	}

	var events []EventDetails
	for _, item := range result.Items {
		if item.Status == "cancelled" {
			continue
		}
		details, err := fromAPIEvent(item)
		if err != nil {
			fmt.Printf("Calendar: skipping unparseable event %s: %v\n", item.Id, err)
			continue
		}
		events = append(events, details)
	}
	return events, nil
}

// CreateEvent inserts a new event and returns it as stored.
func (c *Client) CreateEvent(ctx context.Context, userID int64, input EventInput) (*EventDetails, error) {
	service, err := c.serviceFor(ctx, userID)
	if err != nil {
		return nil, c.normalize(userID, err)
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       eventDateTime(input.StartTime, input.AllDay),
		End:         eventDateTime(input.EndTime, input.AllDay),
		ColorId:     input.ColorID,
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 30},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if len(input.Attendees) > 0 {
		event.Attendees = toAPIAttendees(input.Attendees)
	}

	sendUpdates := "none"
	if len(input.Attendees) > 0 {
		sendUpdates = "all"
	}

	created, err := service.Events.Insert(primaryCalendar, event).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.normalize(userID, fmt.Errorf("failed to create event: %w", err))
	}

	details, err := fromAPIEvent(created)
	if err != nil {
		// Creation succeeded; echo what we sent.
		details = EventDetails{ID: created.Id, Summary: input.Summary, StartTime: input.StartTime, EndTime: input.EndTime, AllDay: input.AllDay, HTMLLink: created.HtmlLink}
	}
	return &details, nil
}

// PatchEvent applies a partial update, touching only the fields the patch
// names.
func (c *Client) PatchEvent(ctx context.Context, userID int64, eventID string, patch EventPatch) (*EventDetails, error) {
	service, err := c.serviceFor(ctx, userID)
	if err != nil {
		return nil, c.normalize(userID, err)
	}

	event := &calendar.Event{}
	if patch.Summary != nil {
		event.Summary = *patch.Summary
	}
	if patch.StartTime != nil {
		event.Start = eventDateTime(*patch.StartTime, false)
	}
	if patch.EndTime != nil {
		event.End = eventDateTime(*patch.EndTime, false)
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.ColorID != nil {
		event.ColorId = *patch.ColorID
	}
	if patch.Attendees != nil {
		event.Attendees = toAPIAttendees(patch.Attendees)
	}

	sendUpdates := "none"
	if patch.Attendees != nil {
		sendUpdates = "all"
	}

	updated, err := service.Events.Patch(primaryCalendar, eventID, event).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, c.normalize(userID, fmt.Errorf("failed to update event: %w", err))
	}

	details, err := fromAPIEvent(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to read updated event: %w", err)
	}
	return &details, nil
}

// DeleteEvent removes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, userID int64, eventID string) error {
	service, err := c.serviceFor(ctx, userID)
	if err != nil {
		return c.normalize(userID, err)
	}

	err = service.Events.Delete(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return c.normalize(userID, fmt.Errorf("failed to delete event: %w", err))
	}
	return nil
}

// GetEvent fetches a single event by id.
func (c *Client) GetEvent(ctx context.Context, userID int64, eventID string) (*EventDetails, error) {
	service, err := c.serviceFor(ctx, userID)
	if err != nil {
		return nil, c.normalize(userID, err)
	}

	item, err := service.Events.Get(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, c.normalize(userID, fmt.Errorf("failed to get event: %w", err))
	}

	details, err := fromAPIEvent(item)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone)
}
