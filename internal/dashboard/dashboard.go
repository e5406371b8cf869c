// Package dashboard assembles the staff's daily view: every roster athlete
// with that day's wellness and RPE, the recomputed readiness and status,
// late flags, planned versus actual RPE and who is still pending.
package dashboard

import (
	"math"
	"time"

	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

// WellnessEntry is an athlete's latest wellness log of the day.
type WellnessEntry struct {
	wellness.Scores
	Readiness    float64               `json:"readinessScore"`
	Status       wellness.Status       `json:"status"`
	Menstruation wellness.Menstruation `json:"menstruationStatus"`
	Notes        string                `json:"notes,omitempty"`
	SubmittedAt  string                `json:"submittedAt"` // HH:MM local
	Late         bool                  `json:"late"`
}

// RPEEntry is an athlete's latest RPE log of the day.
type RPEEntry struct {
	Value       int    `json:"rpeValue"`
	Notes       string `json:"notes,omitempty"`
	SubmittedAt string `json:"submittedAt"`
	Late        bool   `json:"late"`
}

// Athlete is one dashboard row.
type Athlete struct {
	Name     string         `json:"name"`
	InRoster bool           `json:"inRoster"`
	Wellness *WellnessEntry `json:"wellness,omitempty"`
	RPE      *RPEEntry      `json:"rpe,omitempty"`
}

// Summary aggregates the day.
type Summary struct {
	WellnessCount int      `json:"wellnessCount"`
	RPECount      int      `json:"rpeCount"`
	Ready         int      `json:"ready"`
	Warning       int      `json:"warning"`
	Risk          int      `json:"risk"`
	AvgReadiness  *float64 `json:"avgReadiness"`
	PlannedRPE    float64  `json:"plannedRpe"`
	ActualRPE     *float64 `json:"actualRpe"`
}

// Dashboard is the full daily view.
type Dashboard struct {
	Date            string    `json:"date"`
	Athletes        []Athlete `json:"athletes"`
	PendingWellness []string  `json:"pendingWellness"`
	PendingRPE      []string  `json:"pendingRpe"`
	Summary         Summary   `json:"summary"`
}

// Input is everything Build needs for one day.
type Input struct {
	Date     string
	Location *time.Location
	Roster   []string
	Wellness []wellness.WellnessRecord // oldest first
	RPE      []wellness.RPERecord      // oldest first
	Target   team.RPETarget
}

// Build computes the dashboard. Roster athletes come first in roster order,
// then anyone else who submitted, in order of first submission. When an
// athlete logged twice, the latest log wins.
func Build(in Input) Dashboard {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	d := Dashboard{
		Date:            in.Date,
		Athletes:        []Athlete{},
		PendingWellness: []string{},
		PendingRPE:      []string{},
	}
	d.Summary.PlannedRPE = in.Target.Target

	index := make(map[string]int)
	row := func(name string, inRoster bool) *Athlete {
		if i, ok := index[name]; ok {
			return &d.Athletes[i]
		}
		index[name] = len(d.Athletes)
		d.Athletes = append(d.Athletes, Athlete{Name: name, InRoster: inRoster})
		return &d.Athletes[len(d.Athletes)-1]
	}
	for _, name := range in.Roster {
		row(name, true)
	}

	wellnessDone := notifications.NewSubmissions()
	for _, r := range in.Wellness {
		wellnessDone.Add(r.AthleteID, r.PlayerName)
		row(r.PlayerName, false).Wellness = wellnessEntry(r, loc)
	}
	rpeDone := notifications.NewSubmissions()
	for _, r := range in.RPE {
		rpeDone.Add(r.AthleteID, r.PlayerName)
		at := r.SubmittedAt(loc)
		row(r.PlayerName, false).RPE = &RPEEntry{
			Value:       r.Value,
			Notes:       r.Notes,
			SubmittedAt: at.Format("15:04"),
			Late:        wellness.IsLateRPE(at),
		}
	}

	if missing := notifications.Missing(in.Roster, wellnessDone); missing != nil {
		d.PendingWellness = missing
	}
	if missing := notifications.Missing(in.Roster, rpeDone); missing != nil {
		d.PendingRPE = missing
	}

	var readinessSum, rpeSum float64
	for _, a := range d.Athletes {
		if w := a.Wellness; w != nil {
			d.Summary.WellnessCount++
			readinessSum += w.Readiness
			switch w.Status {
			case wellness.StatusRisk:
				d.Summary.Risk++
			case wellness.StatusWarning:
				d.Summary.Warning++
			default:
				d.Summary.Ready++
			}
		}
		if a.RPE != nil {
			d.Summary.RPECount++
			rpeSum += float64(a.RPE.Value)
		}
	}
	if n := d.Summary.WellnessCount; n > 0 {
		avg := round1(readinessSum / float64(n))
		d.Summary.AvgReadiness = &avg
	}
	if n := d.Summary.RPECount; n > 0 {
		avg := round1(rpeSum / float64(n))
		d.Summary.ActualRPE = &avg
	}
	return d
}

// wellnessEntry recomputes readiness and status from the stored levels; the
// stored score is only used if the levels are incomplete.
func wellnessEntry(r wellness.WellnessRecord, loc *time.Location) *WellnessEntry {
	readiness, err := wellness.Readiness(r.Scores)
	if err != nil {
		readiness = r.Readiness
	}
	at := r.SubmittedAt(loc)
	return &WellnessEntry{
		Scores:       r.Scores,
		Readiness:    readiness,
		Status:       wellness.Classify(r.Scores, readiness),
		Menstruation: r.Menstruation,
		Notes:        r.Notes,
		SubmittedAt:  at.Format("15:04"),
		Late:         wellness.IsLateWellness(at),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DayBounds returns [start, end) of day in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
