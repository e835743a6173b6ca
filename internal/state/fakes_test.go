package state

import (
	"context"
	"sync"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

type fakeMedications struct {
	GetAllFunc func(ctx context.Context) ([]medication.Medication, error)
	AddFunc    func(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error)
	UpdateFunc func(ctx context.Context, id string, patch medication.MedicationPatch) (*medication.Medication, error)
	DeleteFunc func(ctx context.Context, id string) error
	calls      int
}

func (f *fakeMedications) GetAll(ctx context.Context) ([]medication.Medication, error) {
	f.calls++
	if f.GetAllFunc == nil {
		return []medication.Medication{}, nil
	}
	return f.GetAllFunc(ctx)
}

func (f *fakeMedications) Add(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	f.calls++
	if f.AddFunc == nil {
		m := in.Medication("remote-med")
		return &m, nil
	}
	return f.AddFunc(ctx, in)
}

func (f *fakeMedications) Update(ctx context.Context, id string, patch medication.MedicationPatch) (*medication.Medication, error) {
	f.calls++
	if f.UpdateFunc == nil {
		return nil, nil
	}
	return f.UpdateFunc(ctx, id, patch)
}

func (f *fakeMedications) Delete(ctx context.Context, id string) error {
	f.calls++
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, id)
}

type fakeReminders struct {
	GetAllFunc  func(ctx context.Context) ([]medication.Reminder, error)
	AddFunc     func(ctx context.Context, r medication.Reminder) (*medication.Reminder, error)
	TakenFunc   func(ctx context.Context, id string) (*medication.Reminder, error)
	SkippedFunc func(ctx context.Context, id string) (*medication.Reminder, error)
	DeleteFunc  func(ctx context.Context, id string) error
	calls       int
}

func (f *fakeReminders) GetAll(ctx context.Context) ([]medication.Reminder, error) {
	f.calls++
	if f.GetAllFunc == nil {
		return []medication.Reminder{}, nil
	}
	return f.GetAllFunc(ctx)
}

func (f *fakeReminders) Add(ctx context.Context, r medication.Reminder) (*medication.Reminder, error) {
	f.calls++
	if f.AddFunc == nil {
		r.ID = "remote-reminder-" + r.Time
		return &r, nil
	}
	return f.AddFunc(ctx, r)
}

func (f *fakeReminders) MarkAsTaken(ctx context.Context, id string) (*medication.Reminder, error) {
	f.calls++
	if f.TakenFunc == nil {
		return nil, nil
	}
	return f.TakenFunc(ctx, id)
}

func (f *fakeReminders) MarkAsSkipped(ctx context.Context, id string) (*medication.Reminder, error) {
	f.calls++
	if f.SkippedFunc == nil {
		return nil, nil
	}
	return f.SkippedFunc(ctx, id)
}

func (f *fakeReminders) Delete(ctx context.Context, id string) error {
	f.calls++
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, id)
}

type fakeUsers struct {
	CurrentFunc         func(ctx context.Context) (*medication.User, error)
	UpdateFunc          func(ctx context.Context, patch medication.UserPatch) (*medication.User, error)
	AddCaregiverFunc    func(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error)
	UpdateCaregiverFunc func(ctx context.Context, id string, patch medication.CaregiverPatch) (*medication.Caregiver, error)
	DeleteCaregiverFunc func(ctx context.Context, id string) error
	LoginFunc           func(ctx context.Context, email, password string) error
	SignupFunc          func(ctx context.Context, email, password string, profile medication.Profile) error
	LogoutFunc          func(ctx context.Context) error
	loginCalls          int
	calls               int
}

func (f *fakeUsers) GetCurrentUser(ctx context.Context) (*medication.User, error) {
	f.calls++
	if f.CurrentFunc == nil {
		return nil, nil
	}
	return f.CurrentFunc(ctx)
}

func (f *fakeUsers) UpdateUser(ctx context.Context, patch medication.UserPatch) (*medication.User, error) {
	f.calls++
	if f.UpdateFunc == nil {
		return nil, nil
	}
	return f.UpdateFunc(ctx, patch)
}

func (f *fakeUsers) AddCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	f.calls++
	if f.AddCaregiverFunc == nil {
		c := in.Caregiver("remote-caregiver")
		return &c, nil
	}
	return f.AddCaregiverFunc(ctx, in)
}

func (f *fakeUsers) UpdateCaregiver(ctx context.Context, id string, patch medication.CaregiverPatch) (*medication.Caregiver, error) {
	f.calls++
	if f.UpdateCaregiverFunc == nil {
		return nil, nil
	}
	return f.UpdateCaregiverFunc(ctx, id, patch)
}

func (f *fakeUsers) DeleteCaregiver(ctx context.Context, id string) error {
	f.calls++
	if f.DeleteCaregiverFunc == nil {
		return nil
	}
	return f.DeleteCaregiverFunc(ctx, id)
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) error {
	f.calls++
	f.loginCalls++
	if f.LoginFunc == nil {
		return nil
	}
	return f.LoginFunc(ctx, email, password)
}

func (f *fakeUsers) Signup(ctx context.Context, email, password string, profile medication.Profile) error {
	f.calls++
	if f.SignupFunc == nil {
		return nil
	}
	return f.SignupFunc(ctx, email, password, profile)
}

func (f *fakeUsers) Logout(ctx context.Context) error {
	f.calls++
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx)
}

type fakeRemote struct {
	meds      *fakeMedications
	reminders *fakeReminders
	users     *fakeUsers
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		meds:      &fakeMedications{},
		reminders: &fakeReminders{},
		users:     &fakeUsers{},
	}
}

func (f *fakeRemote) client() *remote.Client {
	return &remote.Client{
		Provider:    "fake",
		Medications: f.meds,
		Reminders:   f.reminders,
		Users:       f.users,
	}
}

func (f *fakeRemote) calls() int {
	return f.meds.calls + f.reminders.calls + f.users.calls
}

type memorySnapshots struct {
	mu       sync.Mutex
	payloads map[string][]byte
	saves    int
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{payloads: map[string][]byte{}}
}

func (m *memorySnapshots) Save(_ context.Context, name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.payloads[name] = append([]byte(nil), payload...)
	return nil
}

func (m *memorySnapshots) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloads[name], nil
}
