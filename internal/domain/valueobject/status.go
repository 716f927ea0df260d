package valueobject

import "github.com/ignatzorin/civic-backend/internal/pkg/apperror"

type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusCompleted  ComplaintStatus = "completed"
)

// ComplaintStatuses перечисляет статусы в порядке приоритета отображения.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInProgress,
	ComplaintStatusCompleted,
}

func (s ComplaintStatus) IsValid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusCompleted:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s ComplaintStatus) IsTerminal() bool {
	return s == ComplaintStatusCompleted
}

// CanTransitionTo проверяет переход по автомату состояний жалобы.
// В pending вернуться нельзя, из completed выйти нельзя.
func (s ComplaintStatus) CanTransitionTo(newStatus ComplaintStatus) bool {
	transitions := map[ComplaintStatus][]ComplaintStatus{
		ComplaintStatusPending:    {ComplaintStatusInProgress, ComplaintStatusCompleted},
		ComplaintStatusInProgress: {ComplaintStatusCompleted},
		ComplaintStatusCompleted:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s ComplaintStatus) Label() string {
	switch s {
	case ComplaintStatusPending:
		return "Pending"
	case ComplaintStatusInProgress:
		return "In Progress"
	case ComplaintStatusCompleted:
		return "Completed"
	}
	return string(s)
}

func NewComplaintStatus(status string) (ComplaintStatus, error) {
	s := ComplaintStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid complaint status")
	}
	return s, nil
}

type UrgencyLevel string

const (
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyLow    UrgencyLevel = "low"
)

func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

func (u UrgencyLevel) Label() string {
	switch u {
	case UrgencyHigh:
		return "High Priority"
	case UrgencyMedium:
		return "Medium Priority"
	case UrgencyLow:
		return "Low Priority"
	}
	return string(u)
}

func NewUrgencyLevel(level string) (UrgencyLevel, error) {
	u := UrgencyLevel(level)
	if !u.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid urgency level")
	}
	return u, nil
}
