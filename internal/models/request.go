package models

import "time"

type ServiceRequest struct {
	RequestID     string     `json:"request_id"`
	CreatorID     string     `json:"creator_id"`
	ClientID      string     `json:"client_id"`
	Description   string     `json:"description"`
	Address       string     `json:"address"`
	RequestedDate *time.Time `json:"requested_date,omitempty"`
	Type          string     `json:"type"`
	Comment       string     `json:"comment,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type RequestAssignment struct {
	AssignmentID string    `json:"assignment_id"`
	RequestID    string    `json:"request_id"`
	ExecutorID   string    `json:"executor_id"`
	PerformerID  string    `json:"performer_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditEntry struct {
	EmployeeID string `json:"employee_id"`
	Action     string `json:"action"`
	TableName  string `json:"table_name"`
	RecordID   string `json:"record_id"`
	Details    string `json:"details,omitempty"`
}

const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusMonitoring = "monitoring"
	StatusPostponed  = "postponed"
	StatusClosed     = "closed"
	StatusCancelled  = "cancelled"
)

const (
	TypeDefault = "default"
	TypeVIP     = "vip"
	TypeVideo   = "video"
	TypeOptical = "optical"
	TypeOther   = "other"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusInProgress, StatusSuccess, StatusMonitoring, StatusPostponed, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

func ValidRequestType(requestType string) bool {
	switch requestType {
	case TypeDefault, TypeVIP, TypeVideo, TypeOptical, TypeOther:
		return true
	}
	return false
}
