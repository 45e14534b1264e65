// Package notify defines the push events emitted after ledger and
// application changes, and the ports used to deliver them.
package notify

import (
	"context"
	"time"
)

type Type string

const (
	TypeAuthenticated           Type = "authenticated"
	TypeError                   Type = "error"
	TypePong                    Type = "pong"
	TypeApplicationStatusUpdate Type = "application_status_update"
	TypeApplicationReviewed     Type = "application_reviewed"
	TypeNewApplication          Type = "new_application"
	TypeNewScholarship          Type = "new_scholarship"
	TypeScholarshipUpdated      Type = "scholarship_updated"
	TypeDonationCompleted       Type = "donation_completed"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
	RoleDonor    Role = "donor"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleReviewer, RoleAdmin, RoleDonor:
		return r, true
	}
	return "", false
}

// Envelope is the wire shape of every push message.
type Envelope struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

// Event targets exactly one of an identity, a role, or everyone.
type Event struct {
	Type           Type
	TargetIdentity string
	TargetRole     Role
	Broadcast      bool
	Payload        any
	EmittedAt      time.Time
}

func (e Event) Envelope() Envelope { return Envelope{Type: e.Type, Data: e.Payload} }

func ToIdentity(identity string, t Type, payload any) Event {
	return Event{Type: t, TargetIdentity: identity, Payload: payload, EmittedAt: time.Now().UTC()}
}

func ToRole(role Role, t Type, payload any) Event {
	return Event{Type: t, TargetRole: role, Payload: payload, EmittedAt: time.Now().UTC()}
}

func ToEveryone(t Type, payload any) Event {
	return Event{Type: t, Broadcast: true, Payload: payload, EmittedAt: time.Now().UTC()}
}

// Notifier delivers best-effort; it returns how many connections were reached.
type Notifier interface {
	Deliver(ev Event) int
}

// Publisher hands domain events to the outbound broker for the email service.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Routing keys for outbound domain events.
const (
	KeyDonationCompleted        = "donation.completed"
	KeyDonationRefunded         = "donation.refunded"
	KeyApplicationSubmitted     = "application.submitted"
	KeyApplicationStatusChanged = "application.status_changed"
	KeyScholarshipCreated       = "scholarship.created"
)
