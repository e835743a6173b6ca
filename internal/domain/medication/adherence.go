package medication

import "math"

type Adherence struct {
	Total   int `json:"total"`
	Taken   int `json:"taken"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
	// Rate is the rounded percentage of reminders taken.
	Rate int `json:"rate"`
}

func Summarize(reminders []Reminder) Adherence {
	var a Adherence
	for _, r := range reminders {
		a.Total++
		switch {
		case r.Taken:
			a.Taken++
		case r.Skipped:
			a.Skipped++
		default:
			a.Pending++
		}
	}
	if a.Total > 0 {
		a.Rate = int(math.Round(float64(a.Taken) / float64(a.Total) * 100))
	}
	return a
}
