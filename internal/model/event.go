package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus 活動發佈狀態
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
)

// EventTemplate selects which TemplateDetails block applies to an event.
type EventTemplate string

const (
	TemplateConcert  EventTemplate = "concert"
	TemplateWorkshop EventTemplate = "workshop"
	TemplateSports   EventTemplate = "sports"
	TemplateStandard EventTemplate = "standard"
)

func (t EventTemplate) IsValid() bool {
	switch t {
	case TemplateConcert, TemplateWorkshop, TemplateSports, TemplateStandard:
		return true
	}
	return false
}

type ConcertDetails struct {
	Headliner   string     `json:"headliner"`
	SupportActs []string   `json:"support_acts,omitempty"`
	DoorsOpen   *time.Time `json:"doors_open,omitempty"`
}

type WorkshopDetails struct {
	Instructor   string   `json:"instructor"`
	CapacityNote string   `json:"capacity_note,omitempty"`
	Materials    []string `json:"materials,omitempty"`
}

type SportsDetails struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	League   string `json:"league,omitempty"`
}

// TemplateDetails is the template-specific payload of an event. At most one
// block is set and it must match the event's template.
type TemplateDetails struct {
	Concert  *ConcertDetails  `json:"concert,omitempty"`
	Workshop *WorkshopDetails `json:"workshop,omitempty"`
	Sports   *SportsDetails   `json:"sports,omitempty"`
}

func (d TemplateDetails) ValidateFor(t EventTemplate) error {
	if !t.IsValid() {
		return fmt.Errorf("unknown template %q", t)
	}
	set := map[EventTemplate]bool{
		TemplateConcert:  d.Concert != nil,
		TemplateWorkshop: d.Workshop != nil,
		TemplateSports:   d.Sports != nil,
	}
	for template, present := range set {
		if present && template != t {
			return fmt.Errorf("%s details not allowed for %s template", template, t)
		}
	}
	return nil
}

type Event struct {
	ID              int             `json:"-" db:"id"`
	EventID         uuid.UUID       `json:"event_id" db:"event_id"`
	OrganizerID     string          `json:"organizer_id" db:"organizer_id"`
	Name            string          `json:"name" db:"name"`
	Slug            string          `json:"slug" db:"slug"`
	StartsAt        *time.Time      `json:"starts_at,omitempty" db:"starts_at"`
	Location        *string         `json:"location,omitempty" db:"location"`
	CoverImageURL   *string         `json:"cover_image_url,omitempty" db:"cover_image_url"`
	LogoURL         *string         `json:"logo_url,omitempty" db:"logo_url"`
	PrimaryColor    *string         `json:"primary_color,omitempty" db:"primary_color"`
	Template        EventTemplate   `json:"template" db:"template"`
	TemplateDetails TemplateDetails `json:"template_details" db:"template_details"`
	Status          EventStatus     `json:"status" db:"status"`
	PublishedAt     *time.Time      `json:"published_at,omitempty" db:"published_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	Tiers []*TicketTier `json:"tiers,omitempty" db:"-"`
}

func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// MissingPublishFields lists what still blocks publishing.
func (e *Event) MissingPublishFields(tierCount int) []string {
	missing := make([]string, 0)
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if e.StartsAt == nil {
		missing = append(missing, "starts_at")
	}
	if isBlank(e.Location) {
		missing = append(missing, "location")
	}
	if isBlank(e.CoverImageURL) {
		missing = append(missing, "cover_image_url")
	}
	if tierCount < 1 {
		missing = append(missing, "tiers")
	}
	return missing
}

// CreateEventRequest 建立活動（草稿）
type CreateEventRequest struct {
	Name            string          `json:"name" binding:"required"`
	Slug            string          `json:"slug"`
	StartsAt        *time.Time      `json:"starts_at"`
	Location        *string         `json:"location"`
	CoverImageURL   *string         `json:"cover_image_url"`
	LogoURL         *string         `json:"logo_url"`
	PrimaryColor    *string         `json:"primary_color"`
	Template        EventTemplate   `json:"template"`
	TemplateDetails TemplateDetails `json:"template_details"`
}

type UpdateEventParams struct {
	Name            *string          `json:"name"`
	Slug            *string          `json:"slug"`
	StartsAt        *time.Time       `json:"starts_at"`
	Location        *string          `json:"location"`
	CoverImageURL   *string          `json:"cover_image_url"`
	LogoURL         *string          `json:"logo_url"`
	PrimaryColor    *string          `json:"primary_color"`
	Template        *EventTemplate   `json:"template"`
	TemplateDetails *TemplateDetails `json:"template_details"`
}

func (p UpdateEventParams) IsEmpty() bool {
	return p.Name == nil && p.Slug == nil && p.StartsAt == nil && p.Location == nil &&
		p.CoverImageURL == nil && p.LogoURL == nil && p.PrimaryColor == nil &&
		p.Template == nil && p.TemplateDetails == nil
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
