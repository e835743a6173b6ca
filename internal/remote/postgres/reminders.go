package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medminder-go/internal/domain/medication"
)

type ReminderRepository struct {
	b *Backend
}

func (r *ReminderRepository) GetAll(ctx context.Context) ([]medication.Reminder, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	reminders := []medication.Reminder{}
	if err := r.b.scoped(ctx, userID).Order(insertionOrder).Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("reminders.list: %w", err)
	}
	return reminders, nil
}

func (r *ReminderRepository) Add(ctx context.Context, reminder medication.Reminder) (*medication.Reminder, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	reminder.ID = uuid.NewString()
	reminder.UserID = userID
	if err := r.b.db.WithContext(ctx).Create(&reminder).Error; err != nil {
		return nil, fmt.Errorf("reminders.create: %w", err)
	}
	return &reminder, nil
}

func (r *ReminderRepository) MarkAsTaken(ctx context.Context, id string) (*medication.Reminder, error) {
	return r.resolve(ctx, "reminders.taken", id, true)
}

func (r *ReminderRepository) MarkAsSkipped(ctx context.Context, id string) (*medication.Reminder, error) {
	return r.resolve(ctx, "reminders.skipped", id, false)
}

func (r *ReminderRepository) resolve(ctx context.Context, op, id string, taken bool) (*medication.Reminder, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	result := r.b.db.WithContext(ctx).
		Model(&medication.Reminder{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"taken":   taken,
			"skipped": !taken,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var reminder medication.Reminder
	if err := r.b.scoped(ctx, userID).Where("id = ?", id).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &reminder, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return err
	}

	if err := r.b.db.WithContext(ctx).
		Delete(&medication.Reminder{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return fmt.Errorf("reminders.delete: %w", err)
	}
	return nil
}
