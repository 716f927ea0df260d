package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const MaxDescriptionLength = 500

type Complaint struct {
	ID              uuid.UUID
	CitizenID       uuid.UUID
	Category        valueobject.Category
	Description     *string
	PhotoURL        string
	Location        valueobject.Coordinate
	LocationAddress *string
	Status          valueobject.ComplaintStatus
	Urgency         *valueobject.UrgencyLevel
	AdminNotes      *string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewComplaintParams struct {
	CitizenID       uuid.UUID
	Category        valueobject.Category
	Description     string
	PhotoURL        string
	Location        valueobject.Coordinate
	LocationAddress string
}

func NewComplaint(p NewComplaintParams, now time.Time) (*Complaint, error) {
	if p.CitizenID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "citizen id is required")
	}
	if !p.Category.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid complaint category")
	}
	if p.PhotoURL == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "photo is required")
	}
	if _, err := valueobject.NewCoordinate(p.Location.Latitude, p.Location.Longitude); err != nil {
		return nil, err
	}

	description, err := normalizeDescription(p.Description)
	if err != nil {
		return nil, err
	}

	var address *string
	if a := strings.TrimSpace(p.LocationAddress); a != "" {
		address = &a
	}

	return &Complaint{
		ID:              uuid.New(),
		CitizenID:       p.CitizenID,
		Category:        p.Category,
		Description:     description,
		PhotoURL:        p.PhotoURL,
		Location:        p.Location,
		LocationAddress: address,
		Status:          valueobject.ComplaintStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ValidateDescription проверяет описание до загрузки фото.
func ValidateDescription(description string) error {
	_, err := normalizeDescription(description)
	return err
}

func normalizeDescription(description string) (*string, error) {
	d := strings.TrimSpace(description)
	if d == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "description must be at most 500 characters")
	}
	return &d, nil
}

// TransitionTo переводит жалобу в новый статус. При переходе в completed
// выставляется resolved_at. Недопустимый переход не меняет ни одного поля.
func (c *Complaint) TransitionTo(target valueobject.ComplaintStatus, now time.Time) error {
	if !target.IsValid() || !c.Status.CanTransitionTo(target) {
		return apperror.ErrInvalidTransition
	}

	c.Status = target
	c.touch(now)
	if target == valueobject.ComplaintStatusCompleted {
		resolvedAt := c.UpdatedAt
		c.ResolvedAt = &resolvedAt
	}
	return nil
}

// SetUrgency назначает срочность один раз, повторная установка запрещена.
func (c *Complaint) SetUrgency(level valueobject.UrgencyLevel, now time.Time) error {
	if !level.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "invalid urgency level")
	}
	if c.Urgency != nil {
		return apperror.ErrUrgencyAlreadySet
	}
	c.Urgency = &level
	c.touch(now)
	return nil
}

func (c *Complaint) SetAdminNotes(notes string, now time.Time) {
	if n := strings.TrimSpace(notes); n != "" {
		c.AdminNotes = &n
	} else {
		c.AdminNotes = nil
	}
	c.touch(now)
}

func (c *Complaint) IsOwnedBy(citizenID uuid.UUID) bool {
	return c.CitizenID == citizenID
}

func (c *Complaint) IsResolved() bool {
	return c.Status == valueobject.ComplaintStatusCompleted
}

func (c *Complaint) IsHighPriorityOpen() bool {
	return c.Urgency != nil && *c.Urgency == valueobject.UrgencyHigh && !c.IsResolved()
}

// touch обновляет updated_at, не допуская значения раньше created_at.
func (c *Complaint) touch(now time.Time) {
	if now.Before(c.CreatedAt) {
		now = c.CreatedAt
	}
	c.UpdatedAt = now
}
