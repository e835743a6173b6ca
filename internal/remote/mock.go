package remote

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"medminder-go/internal/domain/medication"
)

const (
	ProviderMock = "mock"

	placeholderURL = "YOUR_SUPABASE_URL"
	placeholderKey = "YOUR_SUPABASE_ANON_KEY"
)

// Configured reports whether url and key name a real backend rather than
// being empty or left at their placeholder values.
func Configured(url, key string) bool {
	url = strings.TrimSpace(url)
	key = strings.TrimSpace(key)
	if url == "" || key == "" {
		return false
	}
	return url != placeholderURL && key != placeholderKey
}

// NewMock returns a backend whose every call short-circuits: reads are empty,
// writes are no-ops, there is never a session and sign-in is refused.
func NewMock() *Client {
	return &Client{
		Provider:    ProviderMock,
		Medications: mockMedications{},
		Reminders:   mockReminders{},
		Users:       mockUsers{},
	}
}

type mockMedications struct{}

func (mockMedications) GetAll(context.Context) ([]medication.Medication, error) {
	return []medication.Medication{}, nil
}

func (mockMedications) Add(_ context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	m := in.Medication(uuid.NewString())
	return &m, nil
}

func (mockMedications) Update(context.Context, string, medication.MedicationPatch) (*medication.Medication, error) {
	return nil, nil
}

func (mockMedications) Delete(context.Context, string) error {
	return nil
}

type mockReminders struct{}

func (mockReminders) GetAll(context.Context) ([]medication.Reminder, error) {
	return []medication.Reminder{}, nil
}

func (mockReminders) Add(_ context.Context, r medication.Reminder) (*medication.Reminder, error) {
	r.ID = uuid.NewString()
	return &r, nil
}

func (mockReminders) MarkAsTaken(context.Context, string) (*medication.Reminder, error) {
	return nil, nil
}

func (mockReminders) MarkAsSkipped(context.Context, string) (*medication.Reminder, error) {
	return nil, nil
}

func (mockReminders) Delete(context.Context, string) error {
	return nil
}

type mockUsers struct{}

func (mockUsers) GetCurrentUser(context.Context) (*medication.User, error) {
	return nil, nil
}

func (mockUsers) UpdateUser(context.Context, medication.UserPatch) (*medication.User, error) {
	return nil, nil
}

func (mockUsers) AddCaregiver(_ context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	c := in.Caregiver(uuid.NewString())
	return &c, nil
}

func (mockUsers) UpdateCaregiver(context.Context, string, medication.CaregiverPatch) (*medication.Caregiver, error) {
	return nil, nil
}

func (mockUsers) DeleteCaregiver(context.Context, string) error {
	return nil
}

func (mockUsers) Login(context.Context, string, string) error {
	return ErrDisabled
}

func (mockUsers) Signup(context.Context, string, string, medication.Profile) error {
	return ErrDisabled
}

func (mockUsers) Logout(context.Context) error {
	return nil
}
