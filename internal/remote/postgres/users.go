package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

type account struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (account) TableName() string {
	return "accounts"
}

type UserRepository struct {
	b *Backend
}

// GetCurrentUser returns nil when nobody is signed in or the account row has
// disappeared since the session was stored.
func (r *UserRepository) GetCurrentUser(ctx context.Context) (*medication.User, error) {
	userID, err := r.b.currentUserID(ctx)
	if err != nil || userID == "" {
		return nil, err
	}

	user, err := r.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("users.get: %w", err)
	}
	if user == nil {
		r.b.log.Info("postgres: stored session has no user, dropping it", "user_id", userID)
		return nil, r.b.setSession(ctx, "")
	}
	return user, nil
}

func (r *UserRepository) load(ctx context.Context, userID string) (*medication.User, error) {
	var user medication.User
	err := r.b.db.WithContext(ctx).
		Preload("Caregivers", func(db *gorm.DB) *gorm.DB {
			return db.Order(insertionOrder)
		}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.Caregivers == nil {
		user.Caregivers = []medication.Caregiver{}
	}
	return &user, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, patch medication.UserPatch) (*medication.User, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.PreferredPharmacy != nil {
		updates["preferred_pharmacy"] = *patch.PreferredPharmacy
	}

	if len(updates) > 0 {
		if err := r.b.db.WithContext(ctx).
			Model(&medication.User{}).
			Where("id = ?", userID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("users.update: %w", err)
		}
	}

	user, err := r.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("users.update: %w", err)
	}
	return user, nil
}

func (r *UserRepository) AddCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	caregiver := in.Caregiver(uuid.NewString())
	caregiver.UserID = userID
	if err := r.b.db.WithContext(ctx).Create(&caregiver).Error; err != nil {
		return nil, fmt.Errorf("caregivers.create: %w", err)
	}
	return &caregiver, nil
}

func (r *UserRepository) UpdateCaregiver(ctx context.Context, id string, patch medication.CaregiverPatch) (*medication.Caregiver, error) {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	var existing medication.Caregiver
	if err := r.b.scoped(ctx, userID).Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("caregivers.update: %w", err)
	}

	updated := patch.Apply(existing)
	if err := r.b.db.WithContext(ctx).
		Model(&medication.Caregiver{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"name":             updated.Name,
			"phone":            updated.Phone,
			"email":            updated.Email,
			"relationship":     updated.Relationship,
			"notify_on_missed": updated.NotifyOnMissed,
			"notify_on_low":    updated.NotifyOnLow,
		}).Error; err != nil {
		return nil, fmt.Errorf("caregivers.update: %w", err)
	}
	return &updated, nil
}

func (r *UserRepository) DeleteCaregiver(ctx context.Context, id string) error {
	userID, err := r.b.requireUserID(ctx)
	if err != nil {
		return err
	}

	if err := r.b.db.WithContext(ctx).
		Delete(&medication.Caregiver{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return fmt.Errorf("caregivers.delete: %w", err)
	}
	return nil
}

func (r *UserRepository) Login(ctx context.Context, email, password string) error {
	var acc account
	err := r.b.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return remote.ErrInvalidLogin
		}
		return fmt.Errorf("auth.login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return remote.ErrInvalidLogin
	}

	return r.b.setSession(ctx, acc.ID)
}

// Signup creates the account and its profile row in one transaction. It
// does not sign the account in.
func (r *UserRepository) Signup(ctx context.Context, email, password string, profile medication.Profile) error {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth.signup: hash password: %w", err)
	}

	return r.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&account{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("auth.signup: %w", err)
		}
		if count > 0 {
			return remote.ErrAccountExists
		}

		acc := account{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
		if err := tx.Create(&acc).Error; err != nil {
			return fmt.Errorf("auth.signup: %w", err)
		}

		user := medication.User{
			ID:                acc.ID,
			Name:              profile.Name,
			Email:             email,
			Phone:             profile.Phone,
			PreferredPharmacy: profile.PreferredPharmacy,
		}
		if err := tx.Omit("Caregivers").Create(&user).Error; err != nil {
			return fmt.Errorf("auth.signup: create user: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) Logout(ctx context.Context) error {
	return r.b.setSession(ctx, "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
