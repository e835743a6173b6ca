package state

import (
	"context"

	"github.com/google/uuid"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

// strategy decides where a mutation is persisted. The store folds the
// returned record into its lists; a nil record means there is nothing to
// fold. current is nil when the id is not in the local lists.
type strategy interface {
	mode() Mode

	addMedication(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error)
	updateMedication(ctx context.Context, id string, current *medication.Medication, patch medication.MedicationPatch) (*medication.Medication, error)
	deleteMedication(ctx context.Context, id string, reminderIDs []string) error

	addReminder(ctx context.Context, r medication.Reminder) (*medication.Reminder, error)
	markTaken(ctx context.Context, id string, current *medication.Reminder) (*medication.Reminder, error)
	markSkipped(ctx context.Context, id string, current *medication.Reminder) (*medication.Reminder, error)

	addCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error)
	updateCaregiver(ctx context.Context, id string, current *medication.Caregiver, patch medication.CaregiverPatch) (*medication.Caregiver, error)
	deleteCaregiver(ctx context.Context, id string) error

	updateUser(ctx context.Context, current medication.User, patch medication.UserPatch) (*medication.User, error)
}

// localStrategy keeps demo-mode changes in memory with generated ids.
type localStrategy struct{}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (localStrategy) mode() Mode { return ModeDemo }

func (localStrategy) addMedication(_ context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	m := in.Medication(newID("med"))
	return &m, nil
}

func (localStrategy) updateMedication(_ context.Context, _ string, current *medication.Medication, patch medication.MedicationPatch) (*medication.Medication, error) {
	if current == nil {
		return nil, nil
	}
	m := patch.Apply(*current)
	return &m, nil
}

func (localStrategy) deleteMedication(context.Context, string, []string) error {
	return nil
}

func (localStrategy) addReminder(_ context.Context, r medication.Reminder) (*medication.Reminder, error) {
	r.ID = newID("reminder")
	return &r, nil
}

func (localStrategy) markTaken(_ context.Context, _ string, current *medication.Reminder) (*medication.Reminder, error) {
	if current == nil {
		return nil, nil
	}
	r := current.Clone()
	r.MarkTaken()
	return &r, nil
}

func (localStrategy) markSkipped(_ context.Context, _ string, current *medication.Reminder) (*medication.Reminder, error) {
	if current == nil {
		return nil, nil
	}
	r := current.Clone()
	r.MarkSkipped()
	return &r, nil
}

func (localStrategy) addCaregiver(_ context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	c := in.Caregiver(newID("caregiver"))
	return &c, nil
}

func (localStrategy) updateCaregiver(_ context.Context, _ string, current *medication.Caregiver, patch medication.CaregiverPatch) (*medication.Caregiver, error) {
	if current == nil {
		return nil, nil
	}
	c := patch.Apply(*current)
	return &c, nil
}

func (localStrategy) deleteCaregiver(context.Context, string) error {
	return nil
}

func (localStrategy) updateUser(_ context.Context, current medication.User, patch medication.UserPatch) (*medication.User, error) {
	u := patch.Apply(current)
	return &u, nil
}

// remoteStrategy persists through the backend first; the store folds only
// what the backend returns.
type remoteStrategy struct {
	api *remote.Client
}

func (remoteStrategy) mode() Mode { return ModeAuthenticated }

func (s remoteStrategy) addMedication(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	return s.api.Medications.Add(ctx, in)
}

func (s remoteStrategy) updateMedication(ctx context.Context, id string, _ *medication.Medication, patch medication.MedicationPatch) (*medication.Medication, error) {
	return s.api.Medications.Update(ctx, id, patch)
}

// deleteMedication removes the dose rows before their medication so a
// failure part way never leaves reminders without a parent.
func (s remoteStrategy) deleteMedication(ctx context.Context, id string, reminderIDs []string) error {
	for _, reminderID := range reminderIDs {
		if err := s.api.Reminders.Delete(ctx, reminderID); err != nil {
			return err
		}
	}
	return s.api.Medications.Delete(ctx, id)
}

func (s remoteStrategy) addReminder(ctx context.Context, r medication.Reminder) (*medication.Reminder, error) {
	return s.api.Reminders.Add(ctx, r)
}

func (s remoteStrategy) markTaken(ctx context.Context, id string, _ *medication.Reminder) (*medication.Reminder, error) {
	r, err := s.api.Reminders.MarkAsTaken(ctx, id)
	if err != nil || r == nil {
		return r, err
	}
	r.MarkTaken()
	return r, nil
}

func (s remoteStrategy) markSkipped(ctx context.Context, id string, _ *medication.Reminder) (*medication.Reminder, error) {
	r, err := s.api.Reminders.MarkAsSkipped(ctx, id)
	if err != nil || r == nil {
		return r, err
	}
	r.MarkSkipped()
	return r, nil
}

func (s remoteStrategy) addCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	return s.api.Users.AddCaregiver(ctx, in)
}

func (s remoteStrategy) updateCaregiver(ctx context.Context, id string, _ *medication.Caregiver, patch medication.CaregiverPatch) (*medication.Caregiver, error) {
	return s.api.Users.UpdateCaregiver(ctx, id, patch)
}

func (s remoteStrategy) deleteCaregiver(ctx context.Context, id string) error {
	return s.api.Users.DeleteCaregiver(ctx, id)
}

func (s remoteStrategy) updateUser(ctx context.Context, current medication.User, patch medication.UserPatch) (*medication.User, error) {
	u, err := s.api.Users.UpdateUser(ctx, patch)
	if err != nil || u == nil {
		return u, err
	}
	if u.Caregivers == nil {
		u.Caregivers = append([]medication.Caregiver{}, current.Caregivers...)
	}
	return u, nil
}
