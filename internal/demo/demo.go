// Package demo produces the sample data shown when no remote session exists.
package demo

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"medminder-go/internal/domain/medication"
)

// Source is the randomness used for demo reminder flags.
type Source interface {
	Float64() float64
}

type Generator struct {
	now  func() time.Time
	rand Source
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithSource(src Source) Option {
	return func(g *Generator) { g.rand = src }
}

func New(opts ...Option) *Generator {
	g := &Generator{
		now:  time.Now,
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Medications returns the fixed sample catalogue starting today.
func (g *Generator) Medications() []medication.Medication {
	today := g.today()
	end := today.AddDate(0, 0, 10)

	return []medication.Medication{
		{
			ID:           "med-1",
			Name:         "Atorvastatin",
			Dosage:       "10mg",
			Frequency:    medication.FrequencyDaily,
			TimeOfDay:    medication.TimeSlots{medication.Evening},
			Instructions: "Take with food",
			StartDate:    today,
			Color:        "#2E74FF",
			Prescriber:   "Dr. Smith",
			Pharmacy:     "MedPlus Pharmacy",
		},
		{
			ID:           "med-2",
			Name:         "Amoxicillin",
			Dosage:       "500mg",
			Frequency:    medication.FrequencyDaily,
			TimeOfDay:    medication.TimeSlots{medication.Morning, medication.Evening},
			Instructions: "Take with a full glass of water",
			StartDate:    today,
			EndDate:      &end,
			Color:        "#38C6D2",
			Prescriber:   "Dr. Johnson",
			Pharmacy:     "HealthCare Pharmacy",
		},
		{
			ID:           "med-3",
			Name:         "Lisinopril",
			Dosage:       "5mg",
			Frequency:    medication.FrequencyDaily,
			TimeOfDay:    medication.TimeSlots{medication.Morning},
			Instructions: "Take on an empty stomach",
			StartDate:    today,
			Color:        "#FF5C5C",
			Prescriber:   "Dr. Williams",
			Pharmacy:     "City Drugs",
		},
	}
}

// Reminders derives one reminder per medication and scheduled slot, dated
// today. Morning and afternoon doses get a random taken flag; evening and
// night doses always start pending.
func (g *Generator) Reminders(meds []medication.Medication) []medication.Reminder {
	today := g.today()
	reminders := make([]medication.Reminder, 0, len(meds)*2)

	for _, med := range meds {
		for _, slot := range medication.Slots {
			if !med.Has(slot) {
				continue
			}
			r := medication.ReminderFor(med, slot, today)
			r.ID = "reminder-" + uuid.NewString()
			if slot == medication.Morning || slot == medication.Afternoon {
				r.Taken = g.rand.Float64() > 0.5
			}
			reminders = append(reminders, r)
		}
	}

	return reminders
}

func (g *Generator) User() medication.User {
	return medication.User{
		ID:                "user-1",
		Name:              "Alex Johnson",
		Email:             "alex@example.com",
		Phone:             "555-123-4567",
		PreferredPharmacy: "MedPlus Pharmacy",
		Caregivers: []medication.Caregiver{
			{
				ID:             "caregiver-1",
				Name:           "Jamie Smith",
				Phone:          "555-987-6543",
				Email:          "jamie@example.com",
				Relationship:   "Family Member",
				NotifyOnMissed: true,
				NotifyOnLow:    true,
			},
		},
	}
}

// Data is a complete demo-mode state.
type Data struct {
	Medications []medication.Medication
	Reminders   []medication.Reminder
	User        medication.User
}

func (g *Generator) Data() Data {
	meds := g.Medications()
	return Data{
		Medications: meds,
		Reminders:   g.Reminders(meds),
		User:        g.User(),
	}
}

func (g *Generator) today() time.Time {
	now := g.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
