package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medminder-go/internal/domain/medication"
)

type MedicationRepository struct {
	b *Backend
}

func (r *MedicationRepository) GetAll(ctx context.Context) ([]medication.Medication, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	meds := []medication.Medication{}
	if err := r.b.scoped(ctx, userID).Order(insertionOrder).Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("medications.list: %w", err)
	}
	return meds, nil
}

func (r *MedicationRepository) Add(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	med := in.Medication(uuid.NewString())
	med.UserID = userID
	if err := r.b.db.WithContext(ctx).Create(&med).Error; err != nil {
		return nil, fmt.Errorf("medications.create: %w", err)
	}
	return &med, nil
}

func (r *MedicationRepository) Update(ctx context.Context, id string, patch medication.MedicationPatch) (*medication.Medication, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	var existing medication.Medication
	if err := r.b.scoped(ctx, userID).Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("medications.update: %w", err)
	}

	updated := patch.Apply(existing)
	if err := r.b.db.WithContext(ctx).
		Model(&medication.Medication{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"name":         updated.Name,
			"dosage":       updated.Dosage,
			"frequency":    updated.Frequency,
			"time_of_day":  updated.TimeOfDay,
			"instructions": updated.Instructions,
			"start_date":   updated.StartDate,
			"end_date":     updated.EndDate,
			"color":        updated.Color,
			"image":        updated.Image,
			"prescriber":   updated.Prescriber,
			"pharmacy":     updated.Pharmacy,
		}).Error; err != nil {
		return nil, fmt.Errorf("medications.update: %w", err)
	}
	return &updated, nil
}

// Delete removes the medication; its reminders go with it through the
// foreign key cascade.
func (r *MedicationRepository) Delete(ctx context.Context, id string) error {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return err
	}

	if err := r.b.db.WithContext(ctx).
		Delete(&medication.Medication{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return fmt.Errorf("medications.delete: %w", err)
	}
	return nil
}
