package medication

import (
	"strings"
	"time"
)

type MedicationInput struct {
	Name         string      `json:"name"`
	Dosage       string      `json:"dosage"`
	Frequency    Frequency   `json:"frequency"`
	TimeOfDay    []TimeOfDay `json:"timeOfDay"`
	Instructions string      `json:"instructions"`
	StartDate    time.Time   `json:"startDate"`
	EndDate      *time.Time  `json:"endDate"`
	Color        string      `json:"color"`
	Image        string      `json:"image,omitempty"`
	Prescriber   string      `json:"prescriber,omitempty"`
	Pharmacy     string      `json:"pharmacy,omitempty"`
}

// Validate applies the add-medication form rules.
func (in MedicationInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(in.Dosage) == "" {
		return invalid("dosage", "is required")
	}
	if !in.Frequency.Valid() {
		return invalid("frequency", "must be one of daily, weekly, monthly, as-needed")
	}
	if len(in.TimeOfDay) == 0 {
		return invalid("timeOfDay", "at least one time of day is required")
	}
	for _, slot := range in.TimeOfDay {
		if !slot.Valid() {
			return invalid("timeOfDay", "unknown time of day "+string(slot))
		}
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

// Medication builds the record for the input with the given id.
func (in MedicationInput) Medication(id string) Medication {
	m := Medication{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    in.Frequency,
		TimeOfDay:    append(TimeSlots{}, in.TimeOfDay...),
		Instructions: in.Instructions,
		StartDate:    in.StartDate,
		Color:        in.Color,
		Image:        in.Image,
		Prescriber:   in.Prescriber,
		Pharmacy:     in.Pharmacy,
	}
	if in.EndDate != nil {
		end := *in.EndDate
		m.EndDate = &end
	}
	return m
}

// MedicationPatch is a partial update; nil fields are left unchanged.
// ClearEndDate removes the end date.
type MedicationPatch struct {
	Name         *string     `json:"name,omitempty"`
	Dosage       *string     `json:"dosage,omitempty"`
	Frequency    *Frequency  `json:"frequency,omitempty"`
	TimeOfDay    []TimeOfDay `json:"timeOfDay,omitempty"`
	Instructions *string     `json:"instructions,omitempty"`
	StartDate    *time.Time  `json:"startDate,omitempty"`
	EndDate      *time.Time  `json:"endDate,omitempty"`
	ClearEndDate bool        `json:"-"`
	Color        *string     `json:"color,omitempty"`
	Image        *string     `json:"image,omitempty"`
	Prescriber   *string     `json:"prescriber,omitempty"`
	Pharmacy     *string     `json:"pharmacy,omitempty"`
}

func (p MedicationPatch) Empty() bool {
	return p.Name == nil && p.Dosage == nil && p.Frequency == nil && p.TimeOfDay == nil &&
		p.Instructions == nil && p.StartDate == nil && p.EndDate == nil && !p.ClearEndDate &&
		p.Color == nil && p.Image == nil && p.Prescriber == nil && p.Pharmacy == nil
}

func (p MedicationPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name", "is required")
	}
	if p.Dosage != nil && strings.TrimSpace(*p.Dosage) == "" {
		return invalid("dosage", "is required")
	}
	if p.Frequency != nil && !p.Frequency.Valid() {
		return invalid("frequency", "must be one of daily, weekly, monthly, as-needed")
	}
	if p.TimeOfDay != nil {
		if len(p.TimeOfDay) == 0 {
			return invalid("timeOfDay", "at least one time of day is required")
		}
		for _, slot := range p.TimeOfDay {
			if !slot.Valid() {
				return invalid("timeOfDay", "unknown time of day "+string(slot))
			}
		}
	}
	return nil
}

// Apply shallow-merges the patch into m. The id is never changed.
func (p MedicationPatch) Apply(m Medication) Medication {
	out := m.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Dosage != nil {
		out.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		out.Frequency = *p.Frequency
	}
	if p.TimeOfDay != nil {
		out.TimeOfDay = append(TimeSlots{}, p.TimeOfDay...)
	}
	if p.Instructions != nil {
		out.Instructions = *p.Instructions
	}
	if p.StartDate != nil {
		out.StartDate = *p.StartDate
	}
	if p.ClearEndDate {
		out.EndDate = nil
	} else if p.EndDate != nil {
		end := *p.EndDate
		out.EndDate = &end
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Image != nil {
		out.Image = *p.Image
	}
	if p.Prescriber != nil {
		out.Prescriber = *p.Prescriber
	}
	if p.Pharmacy != nil {
		out.Pharmacy = *p.Pharmacy
	}
	return out
}

type CaregiverInput struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Relationship   string `json:"relationship"`
	NotifyOnMissed bool   `json:"notifyOnMissed"`
	NotifyOnLow    bool   `json:"notifyOnLow"`
}

func (in CaregiverInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(in.Phone) == "" && strings.TrimSpace(in.Email) == "" {
		return invalid("email", "phone or email is required")
	}
	return nil
}

func (in CaregiverInput) Caregiver(id string) Caregiver {
	return Caregiver{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		Phone:          strings.TrimSpace(in.Phone),
		Email:          strings.TrimSpace(in.Email),
		Relationship:   in.Relationship,
		NotifyOnMissed: in.NotifyOnMissed,
		NotifyOnLow:    in.NotifyOnLow,
	}
}

type CaregiverPatch struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Relationship   *string `json:"relationship,omitempty"`
	NotifyOnMissed *bool   `json:"notifyOnMissed,omitempty"`
	NotifyOnLow    *bool   `json:"notifyOnLow,omitempty"`
}

func (p CaregiverPatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil && p.Relationship == nil &&
		p.NotifyOnMissed == nil && p.NotifyOnLow == nil
}

func (p CaregiverPatch) Apply(c Caregiver) Caregiver {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Relationship != nil {
		c.Relationship = *p.Relationship
	}
	if p.NotifyOnMissed != nil {
		c.NotifyOnMissed = *p.NotifyOnMissed
	}
	if p.NotifyOnLow != nil {
		c.NotifyOnLow = *p.NotifyOnLow
	}
	return c
}

// UserPatch updates profile fields. Caregivers and the session flag are
// managed through their own operations.
type UserPatch struct {
	Name              *string `json:"name,omitempty"`
	Email             *string `json:"email,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	PreferredPharmacy *string `json:"preferredPharmacy,omitempty"`
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.PreferredPharmacy == nil
}

func (p UserPatch) Apply(u User) User {
	out := u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	if p.PreferredPharmacy != nil {
		out.PreferredPharmacy = *p.PreferredPharmacy
	}
	return out
}
