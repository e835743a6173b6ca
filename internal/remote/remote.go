// Package remote defines the contract between the state store and the hosted
// backend. Implementations are stateless translators: one round trip per call,
// no retries and no caching. A nil record with a nil error means the backend
// matched no row.
package remote

import (
	"context"

	"medminder-go/internal/domain/medication"
)

type MedicationAPI interface {
	GetAll(ctx context.Context) ([]medication.Medication, error)
	Add(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error)
	Update(ctx context.Context, id string, patch medication.MedicationPatch) (*medication.Medication, error)
	Delete(ctx context.Context, id string) error
}

type ReminderAPI interface {
	GetAll(ctx context.Context) ([]medication.Reminder, error)
	Add(ctx context.Context, reminder medication.Reminder) (*medication.Reminder, error)
	MarkAsTaken(ctx context.Context, id string) (*medication.Reminder, error)
	MarkAsSkipped(ctx context.Context, id string) (*medication.Reminder, error)
	Delete(ctx context.Context, id string) error
}

type UserAPI interface {
	// GetCurrentUser returns nil when there is no session.
	GetCurrentUser(ctx context.Context) (*medication.User, error)
	UpdateUser(ctx context.Context, patch medication.UserPatch) (*medication.User, error)
	AddCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error)
	UpdateCaregiver(ctx context.Context, id string, patch medication.CaregiverPatch) (*medication.Caregiver, error)
	DeleteCaregiver(ctx context.Context, id string) error
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password string, profile medication.Profile) error
	Logout(ctx context.Context) error
}

// Client bundles the per-entity APIs of one backend.
type Client struct {
	Provider    string
	Medications MedicationAPI
	Reminders   ReminderAPI
	Users       UserAPI
}

// SessionStore keeps the opaque session payload of a provider across restarts.
type SessionStore interface {
	LoadSession(ctx context.Context, provider string) ([]byte, error)
	SaveSession(ctx context.Context, provider string, payload []byte) error
	ClearSession(ctx context.Context, provider string) error
}
