package wellness

import (
	"fmt"
	"strings"
)

// Outcome is the four-way classification of a new wellness log.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeNoteOnly
	OutcomeRiskOnly
	OutcomeRiskAndNote
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRiskAndNote:
		return "risk_and_note"
	case OutcomeRiskOnly:
		return "risk"
	case OutcomeNoteOnly:
		return "note"
	default:
		return "none"
	}
}

// Assessment is the Risk Detector's view of a single log.
type Assessment struct {
	Risk    bool
	HasNote bool
}

// Assess flags risk when any level is 8 or more, and notes when the trimmed
// note is non-empty. Unset levels never count as risk.
func Assess(s Scores, notes string) Assessment {
	return Assessment{
		Risk:    anyAtLeast(s, riskThreshold),
		HasNote: strings.TrimSpace(notes) != "",
	}
}

// Outcome returns the mutually exclusive outcome for a.
func (a Assessment) Outcome() Outcome {
	switch {
	case a.Risk && a.HasNote:
		return OutcomeRiskAndNote
	case a.Risk:
		return OutcomeRiskOnly
	case a.HasNote:
		return OutcomeNoteOnly
	default:
		return OutcomeNone
	}
}

// Alert is the staff notification produced for a wellness log.
type Alert struct {
	ShouldNotify bool
	Outcome      Outcome
	Title        string
	Body         string
}

const (
	AlertTitleRisk = "⚠️ Alerta de Wellness"
	AlertTitleNote = "📝 Nota de Wellness"
)

// RiskAlert runs the detector and picks the message for the outcome.
func RiskAlert(playerName string, s Scores, notes string) Alert {
	outcome := Assess(s, notes).Outcome()
	note := strings.TrimSpace(notes)

	switch outcome {
	case OutcomeRiskAndNote:
		return Alert{
			ShouldNotify: true,
			Outcome:      outcome,
			Title:        AlertTitleRisk,
			Body:         fmt.Sprintf("%s ha reportado valores altos y ha dejado una nota: \"%s\"", playerName, note),
		}
	case OutcomeRiskOnly:
		return Alert{
			ShouldNotify: true,
			Outcome:      outcome,
			Title:        AlertTitleRisk,
			Body:         fmt.Sprintf("%s ha reportado valores altos. Revisa el dashboard.", playerName),
		}
	case OutcomeNoteOnly:
		return Alert{
			ShouldNotify: true,
			Outcome:      outcome,
			Title:        AlertTitleNote,
			Body:         fmt.Sprintf("%s ha dejado una nota en su Wellness.", playerName),
		}
	default:
		return Alert{Outcome: outcome}
	}
}
