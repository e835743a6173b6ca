package medication

import (
	"time"

	"gorm.io/datatypes"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAsNeeded Frequency = "as-needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	default:
		return false
	}
}

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Slots lists the times of day in the order reminders are generated.
var Slots = []TimeOfDay{Morning, Afternoon, Evening, Night}

var slotClock = map[TimeOfDay]string{
	Morning:   "08:00",
	Afternoon: "13:00",
	Evening:   "18:00",
	Night:     "22:00",
}

func (t TimeOfDay) Valid() bool {
	_, ok := slotClock[t]
	return ok
}

// Clock returns the HH:MM reminder time for the slot, or "" for an unknown slot.
func (t TimeOfDay) Clock() string {
	return slotClock[t]
}

// TimeSlots is stored as a JSON array column.
type TimeSlots = datatypes.JSONSlice[TimeOfDay]

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Medication struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"userId,omitempty" gorm:"index;not null"`
	Name         string     `json:"name" gorm:"not null"`
	Dosage       string     `json:"dosage" gorm:"not null"`
	Frequency    Frequency  `json:"frequency" gorm:"type:varchar(16);not null"`
	TimeOfDay    TimeSlots  `json:"timeOfDay" gorm:"column:time_of_day"`
	Instructions string     `json:"instructions"`
	StartDate    time.Time  `json:"startDate" gorm:"not null"`
	EndDate      *time.Time `json:"endDate"`
	Color        string     `json:"color"`
	Image        string     `json:"image,omitempty"`
	Prescriber   string     `json:"prescriber,omitempty"`
	Pharmacy     string     `json:"pharmacy,omitempty"`
}

// Has reports whether the medication is scheduled for the slot.
func (m Medication) Has(slot TimeOfDay) bool {
	for _, t := range m.TimeOfDay {
		if t == slot {
			return true
		}
	}
	return false
}

type Reminder struct {
	ID             string `json:"id" gorm:"primaryKey"`
	UserID         string `json:"userId,omitempty" gorm:"index;not null"`
	MedicationID   string `json:"medicationId" gorm:"index;not null"`
	MedicationName string `json:"medicationName" gorm:"not null"`
	Time           string `json:"time" gorm:"size:5;not null"`
	Date           string `json:"date" gorm:"size:10;not null"`
	Taken          bool   `json:"taken" gorm:"not null;default:false"`
	Skipped        bool   `json:"skipped" gorm:"not null;default:false"`
	LateBy         *int   `json:"lateBy,omitempty"`
}

// MarkTaken sets taken and clears skipped.
func (r *Reminder) MarkTaken() {
	r.Taken = true
	r.Skipped = false
}

// MarkSkipped sets skipped and clears taken.
func (r *Reminder) MarkSkipped() {
	r.Taken = false
	r.Skipped = true
}

// Pending reports whether the dose has been neither taken nor skipped.
func (r Reminder) Pending() bool {
	return !r.Taken && !r.Skipped
}

type Caregiver struct {
	ID             string `json:"id" gorm:"primaryKey"`
	UserID         string `json:"userId,omitempty" gorm:"index;not null"`
	Name           string `json:"name" gorm:"not null"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Relationship   string `json:"relationship"`
	NotifyOnMissed bool   `json:"notifyOnMissed" gorm:"not null;default:false"`
	NotifyOnLow    bool   `json:"notifyOnLow" gorm:"not null;default:false"`
}

type User struct {
	ID                string      `json:"id" gorm:"primaryKey"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone,omitempty"`
	PreferredPharmacy string      `json:"preferredPharmacy,omitempty"`
	IsLoggedIn        bool        `json:"isLoggedIn" gorm:"-"`
	Caregivers        []Caregiver `json:"caregivers" gorm:"foreignKey:UserID;references:ID"`
}

// Profile carries the fields collected at signup.
type Profile struct {
	Name              string `json:"name"`
	Phone             string `json:"phone,omitempty"`
	PreferredPharmacy string `json:"preferredPharmacy,omitempty"`
}

// ReminderFor builds an unresolved reminder for one slot of a medication.
func ReminderFor(med Medication, slot TimeOfDay, day time.Time) Reminder {
	return Reminder{
		UserID:         med.UserID,
		MedicationID:   med.ID,
		MedicationName: med.Name,
		Time:           slot.Clock(),
		Date:           day.Format(DateLayout),
	}
}

// Clone returns a deep copy of the medication.
func (m Medication) Clone() Medication {
	out := m
	if m.TimeOfDay != nil {
		out.TimeOfDay = append(TimeSlots{}, m.TimeOfDay...)
	}
	if m.EndDate != nil {
		end := *m.EndDate
		out.EndDate = &end
	}
	return out
}

// Clone returns a deep copy of the reminder.
func (r Reminder) Clone() Reminder {
	out := r
	if r.LateBy != nil {
		late := *r.LateBy
		out.LateBy = &late
	}
	return out
}

// Clone returns a deep copy of the user including caregivers.
func (u User) Clone() User {
	out := u
	out.Caregivers = append([]Caregiver{}, u.Caregivers...)
	return out
}
