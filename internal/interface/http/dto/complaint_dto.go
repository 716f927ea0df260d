package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/usecase/complaint"
)

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type SetUrgencyRequest struct {
	Urgency string `json:"urgency" binding:"required"`
}

// SetAdminNotesRequest: пустые заметки очищают поле.
type SetAdminNotesRequest struct {
	Notes string `json:"notes"`
}

type ComplaintResponse struct {
	ID              uuid.UUID  `json:"id"`
	CitizenID       uuid.UUID  `json:"citizen_id"`
	Category        string     `json:"category"`
	CategoryLabel   string     `json:"category_label"`
	Description     *string    `json:"description"`
	PhotoURL        string     `json:"photo_url"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	LocationAddress *string    `json:"location_address"`
	Status          string     `json:"status"`
	StatusLabel     string     `json:"status_label"`
	Urgency         *string    `json:"urgency"`
	AdminNotes      *string    `json:"admin_notes"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ToComplaintResponse(c *entity.Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:              c.ID,
		CitizenID:       c.CitizenID,
		Category:        string(c.Category),
		CategoryLabel:   c.Category.Label(),
		Description:     c.Description,
		PhotoURL:        c.PhotoURL,
		Latitude:        c.Location.Latitude,
		Longitude:       c.Location.Longitude,
		LocationAddress: c.LocationAddress,
		Status:          string(c.Status),
		StatusLabel:     c.Status.Label(),
		AdminNotes:      c.AdminNotes,
		ResolvedAt:      c.ResolvedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Urgency != nil {
		u := string(*c.Urgency)
		resp.Urgency = &u
	}
	return resp
}

func ToComplaintListResponse(complaints []*entity.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, ToComplaintResponse(c))
	}
	return out
}

// TransitionResponse: жалоба после перехода и выданная награда, если она была.
type TransitionResponse struct {
	Complaint ComplaintResponse    `json:"complaint"`
	Reward    *RewardEntryResponse `json:"reward,omitempty"`
}

func ToTransitionResponse(result *complaint.TransitionResult) TransitionResponse {
	resp := TransitionResponse{Complaint: ToComplaintResponse(result.Complaint)}
	if result.Reward != nil {
		r := ToRewardEntryResponse(result.Reward)
		resp.Reward = &r
	}
	return resp
}
