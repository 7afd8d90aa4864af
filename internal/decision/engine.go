// Package decision fuses the alertness verdict, the confirmed plate, and the
// authorization lookup into one outcome. Decide is a pure function.
package decision

import (
	"time"

	"tollgate-service/internal/domain/toll"
)

// Decide applies the gate policy in fixed priority order, first match wins:
//
//  1. no confirmed plate                      -> DENIED_INCONCLUSIVE
//  2. unauthorized and drowsy                 -> DENIED_UNAUTHORIZED_AND_DROWSY
//  3. unauthorized                            -> DENIED_UNAUTHORIZED
//  4. authorized and drowsy                   -> DENIED_DROWSY
//  5. authorized and alert                    -> GRANTED
//  6. alertness indeterminate                 -> DENIED_INCONCLUSIVE
//
// Unauthorized status dominates alertness when both fail. Every denial
// produces a violation record stamped with now; GRANTED produces none.
func Decide(alertness toll.AlertnessResult, plate *toll.ConfirmedPlate, authorized bool, now time.Time) (toll.DecisionOutcome, *toll.ViolationRecord) {
	outcome := evaluate(alertness, plate, authorized)
	if outcome == toll.Granted {
		return outcome, nil
	}

	plateText := toll.PlatePlaceholder
	if plate != nil {
		plateText = plate.Text
	}
	return outcome, &toll.ViolationRecord{
		Timestamp:      now,
		Plate:          plateText,
		Reason:         outcome,
		AlertnessRatio: alertness.Ratio,
	}
}

func evaluate(alertness toll.AlertnessResult, plate *toll.ConfirmedPlate, authorized bool) toll.DecisionOutcome {
	if plate == nil {
		return toll.DeniedInconclusive
	}
	drowsy := alertness.Classification == toll.Drowsy
	switch {
	case !authorized && drowsy:
		return toll.DeniedUnauthorizedDrowsy
	case !authorized:
		return toll.DeniedUnauthorized
	case drowsy:
		return toll.DeniedDrowsy
	case alertness.Classification == toll.Alert:
		return toll.Granted
	default:
		return toll.DeniedInconclusive
	}
}
