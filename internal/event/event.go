// Package event defines the closed set of change events emitted after a
// request mutation commits. Each kind carries its own payload shape; the
// broadcaster serializes them into the wire envelope.
package event

import "github.com/prot-alx/megaportal-backend-api-sub000/internal/models"

type Kind string

const (
	KindCreated       Kind = "CREATED"
	KindAssigned      Kind = "ASSIGNED"
	KindStatusChanged Kind = "STATUS_CHANGED"
	KindCommentAdded  Kind = "COMMENT_ADDED"
	KindClosed        Kind = "CLOSED"
	KindCancelled     Kind = "CANCELLED"
)

// Initiator identifies who performed the mutation.
type Initiator struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
}

type Event interface {
	Kind() Kind
	ResourceID() string
	Who() Initiator
}

type RequestCreated struct {
	Request   models.ServiceRequest `json:"request"`
	Initiator Initiator             `json:"initiator"`
}

type PerformerAssigned struct {
	Request    models.ServiceRequest    `json:"request"`
	Assignment models.RequestAssignment `json:"assignment"`
	Initiator  Initiator                `json:"initiator"`
}

type StatusChanged struct {
	Request    models.ServiceRequest `json:"request"`
	FromStatus string                `json:"from_status"`
	ToStatus   string                `json:"to_status"`
	Initiator  Initiator             `json:"initiator"`
}

type CommentAdded struct {
	Request   models.ServiceRequest `json:"request"`
	Comment   string                `json:"comment"`
	Initiator Initiator             `json:"initiator"`
}

type RequestClosed struct {
	Request   models.ServiceRequest `json:"request"`
	Initiator Initiator             `json:"initiator"`
}

type RequestCancelled struct {
	Request   models.ServiceRequest `json:"request"`
	Initiator Initiator             `json:"initiator"`
}

func (RequestCreated) Kind() Kind    { return KindCreated }
func (PerformerAssigned) Kind() Kind { return KindAssigned }
func (StatusChanged) Kind() Kind     { return KindStatusChanged }
func (CommentAdded) Kind() Kind      { return KindCommentAdded }
func (RequestClosed) Kind() Kind     { return KindClosed }
func (RequestCancelled) Kind() Kind  { return KindCancelled }

func (e RequestCreated) ResourceID() string    { return e.Request.RequestID }
func (e PerformerAssigned) ResourceID() string { return e.Request.RequestID }
func (e StatusChanged) ResourceID() string     { return e.Request.RequestID }
func (e CommentAdded) ResourceID() string      { return e.Request.RequestID }
func (e RequestClosed) ResourceID() string     { return e.Request.RequestID }
func (e RequestCancelled) ResourceID() string  { return e.Request.RequestID }

func (e RequestCreated) Who() Initiator    { return e.Initiator }
func (e PerformerAssigned) Who() Initiator { return e.Initiator }
func (e StatusChanged) Who() Initiator     { return e.Initiator }
func (e CommentAdded) Who() Initiator      { return e.Initiator }
func (e RequestClosed) Who() Initiator     { return e.Initiator }
func (e RequestCancelled) Who() Initiator  { return e.Initiator }

func Actor(employee models.Employee) Initiator {
	return Initiator{EmployeeID: employee.EmployeeID, Role: employee.Role}
}
