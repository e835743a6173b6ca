package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medminder-go/internal/domain/medication"
)

// run executes one serialized state transition. fn talks to the strategy
// without holding mu and returns an apply func, which runs with mu held. A
// non-nil apply is folded in even when fn also reports an error, so a
// multi-step operation can keep the steps that succeeded.
func (s *Store) run(ctx context.Context, op string, session bool, fn func(st strategy) (func(), error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()

	s.mu.Lock()
	st := s.strategy
	s.loading = session || st.mode() == ModeAuthenticated
	s.mu.Unlock()

	apply, err := fn(st)

	s.mu.Lock()
	s.loading = false
	if apply != nil {
		apply()
	}
	if err != nil {
		s.errMsg = err.Error()
	}
	mode := s.strategy.mode()
	rate := medication.Summarize(s.data.Reminders).Rate
	s.mu.Unlock()

	s.metrics.StoreOperation(op, string(mode), err, time.Since(start))
	s.metrics.SetAdherence(rate)

	if err != nil {
		s.log.BusinessError("state: operation failed", err, "op", op, "mode", mode)
	}
	if apply != nil {
		s.persist(ctx)
	}
	s.publish(op)
	return err
}

func (s *Store) mutate(ctx context.Context, op string, fn func(st strategy) (func(), error)) error {
	return s.run(ctx, op, false, fn)
}

// AddMedication appends a new medication and today's reminder for each of
// its slots. If a reminder cannot be created the medication and the
// reminders already created are removed again and nothing is applied.
func (s *Store) AddMedication(ctx context.Context, in medication.MedicationInput) error {
	return s.mutate(ctx, "add_medication", func(st strategy) (func(), error) {
		med, err := st.addMedication(ctx, in)
		if err != nil || med == nil {
			return nil, err
		}

		var reminders []medication.Reminder
		today := s.now()
		for _, slot := range medication.Slots {
			if !med.Has(slot) {
				continue
			}
			r, err := st.addReminder(ctx, medication.ReminderFor(*med, slot, today))
			if err != nil {
				return nil, s.discardMedication(ctx, st, med.ID, reminders, err)
			}
			if r != nil {
				reminders = append(reminders, *r)
			}
		}

		return func() {
			s.data.Medications = append(s.data.Medications, *med)
			s.data.Reminders = append(s.data.Reminders, reminders...)
		}, nil
	})
}

// discardMedication undoes a partially created medication. cause is always
// returned; a failed cleanup is joined to it.
func (s *Store) discardMedication(ctx context.Context, st strategy, id string, reminders []medication.Reminder, cause error) error {
	ids := make([]string, 0, len(reminders))
	for _, r := range reminders {
		ids = append(ids, r.ID)
	}
	if err := st.deleteMedication(ctx, id, ids); err != nil {
		s.log.InternalError("state: discard partial medication failed", err, "medication_id", id)
		return errors.Join(cause, fmt.Errorf("discard medication %s: %w", id, err))
	}
	return cause
}

// UpdateMedication shallow-merges patch into the medication. Reminders keep
// the medication's name in sync.
func (s *Store) UpdateMedication(ctx context.Context, id string, patch medication.MedicationPatch) error {
	return s.mutate(ctx, "update_medication", func(st strategy) (func(), error) {
		med, err := st.updateMedication(ctx, id, s.findMedication(id), patch)
		if err != nil || med == nil {
			return nil, err
		}

		return func() {
			for i := range s.data.Medications {
				if s.data.Medications[i].ID != id {
					continue
				}
				s.data.Medications[i] = *med
				for j := range s.data.Reminders {
					if s.data.Reminders[j].MedicationID == id {
						s.data.Reminders[j].MedicationName = med.Name
					}
				}
				return
			}
		}, nil
	})
}

// DeleteMedication removes the medication and every reminder that
// references it in a single transition.
func (s *Store) DeleteMedication(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_medication", func(st strategy) (func(), error) {
		if err := st.deleteMedication(ctx, id, s.reminderIDsFor(id)); err != nil {
			return nil, err
		}

		return func() {
			meds := s.data.Medications[:0]
			for _, m := range s.data.Medications {
				if m.ID != id {
					meds = append(meds, m)
				}
			}
			s.data.Medications = meds

			reminders := s.data.Reminders[:0]
			for _, r := range s.data.Reminders {
				if r.MedicationID != id {
					reminders = append(reminders, r)
				}
			}
			s.data.Reminders = reminders
		}, nil
	})
}

func (s *Store) MarkReminderAsTaken(ctx context.Context, id string) error {
	return s.mutate(ctx, "mark_reminder_taken", func(st strategy) (func(), error) {
		r, err := st.markTaken(ctx, id, s.findReminder(id))
		if err != nil || r == nil {
			return nil, err
		}
		return s.replaceReminder(id, *r), nil
	})
}

func (s *Store) MarkReminderAsSkipped(ctx context.Context, id string) error {
	return s.mutate(ctx, "mark_reminder_skipped", func(st strategy) (func(), error) {
		r, err := st.markSkipped(ctx, id, s.findReminder(id))
		if err != nil || r == nil {
			return nil, err
		}
		return s.replaceReminder(id, *r), nil
	})
}

func (s *Store) replaceReminder(id string, r medication.Reminder) func() {
	return func() {
		for i := range s.data.Reminders {
			if s.data.Reminders[i].ID == id {
				s.data.Reminders[i] = r
				return
			}
		}
	}
}

func (s *Store) AddCaregiver(ctx context.Context, in medication.CaregiverInput) error {
	return s.mutate(ctx, "add_caregiver", func(st strategy) (func(), error) {
		c, err := st.addCaregiver(ctx, in)
		if err != nil || c == nil {
			return nil, err
		}
		return func() {
			s.data.User.Caregivers = append(s.data.User.Caregivers, *c)
		}, nil
	})
}

func (s *Store) UpdateCaregiver(ctx context.Context, id string, patch medication.CaregiverPatch) error {
	return s.mutate(ctx, "update_caregiver", func(st strategy) (func(), error) {
		c, err := st.updateCaregiver(ctx, id, s.findCaregiver(id), patch)
		if err != nil || c == nil {
			return nil, err
		}
		return func() {
			for i := range s.data.User.Caregivers {
				if s.data.User.Caregivers[i].ID == id {
					s.data.User.Caregivers[i] = *c
					return
				}
			}
		}, nil
	})
}

func (s *Store) DeleteCaregiver(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_caregiver", func(st strategy) (func(), error) {
		if err := st.deleteCaregiver(ctx, id); err != nil {
			return nil, err
		}
		return func() {
			kept := s.data.User.Caregivers[:0]
			for _, c := range s.data.User.Caregivers {
				if c.ID != id {
					kept = append(kept, c)
				}
			}
			s.data.User.Caregivers = kept
		}, nil
	})
}

// UpdateUser shallow-merges profile fields. The session flag is never
// changed by a profile update.
func (s *Store) UpdateUser(ctx context.Context, patch medication.UserPatch) error {
	return s.mutate(ctx, "update_user", func(st strategy) (func(), error) {
		s.mu.RLock()
		current := s.data.User.Clone()
		s.mu.RUnlock()

		u, err := st.updateUser(ctx, current, patch)
		if err != nil || u == nil {
			return nil, err
		}
		return func() {
			loggedIn := s.data.User.IsLoggedIn
			s.data.User = *u
			s.data.User.IsLoggedIn = loggedIn
		}, nil
	})
}

func (s *Store) findMedication(id string) *medication.Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.data.Medications {
		if m.ID == id {
			c := m.Clone()
			return &c
		}
	}
	return nil
}

func (s *Store) findReminder(id string) *medication.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.Reminders {
		if r.ID == id {
			c := r.Clone()
			return &c
		}
	}
	return nil
}

func (s *Store) findCaregiver(id string) *medication.Caregiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.data.User.Caregivers {
		if c.ID == id {
			out := c
			return &out
		}
	}
	return nil
}

func (s *Store) reminderIDsFor(medicationID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, r := range s.data.Reminders {
		if r.MedicationID == medicationID {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
