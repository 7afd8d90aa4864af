package toll

import (
	"time"
)

// EyeState is the per-frame eye observation produced by the eye probe.
// Unknown covers "no face found" and transient detection loss.
type EyeState int

const (
	EyeOpen EyeState = iota
	EyeClosed
	EyeUnknown
)

func (s EyeState) String() string {
	switch s {
	case EyeOpen:
		return "open"
	case EyeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type EyeObservation struct {
	FrameIndex int      `json:"frame_index"`
	State      EyeState `json:"state"`
}

// Classification is the alertness verdict for one vehicle session.
type Classification string

const (
	Alert         Classification = "ALERT"
	Drowsy        Classification = "DROWSY"
	Indeterminate Classification = "INDETERMINATE"
)

// AlertnessResult is produced once per session, when the drowsiness window
// fills or its step budget expires.
type AlertnessResult struct {
	Ratio          float64        `json:"ratio"`
	Classification Classification `json:"classification"`
}

// PlateCandidate is one raw OCR read attempt for one frame.
type PlateCandidate struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

// ConfirmedPlate is a normalized plate that reached the required number of
// exact-match confirmations.
type ConfirmedPlate struct {
	Text          string `json:"text"`
	Confirmations int    `json:"confirmations"`
}

type DecisionOutcome string

const (
	Granted                  DecisionOutcome = "GRANTED"
	DeniedUnauthorized       DecisionOutcome = "DENIED_UNAUTHORIZED"
	DeniedDrowsy             DecisionOutcome = "DENIED_DROWSY"
	DeniedUnauthorizedDrowsy DecisionOutcome = "DENIED_UNAUTHORIZED_AND_DROWSY"
	DeniedInconclusive       DecisionOutcome = "DENIED_INCONCLUSIVE"
)

// Denied reports whether the outcome is any of the denial variants.
func (o DecisionOutcome) Denied() bool {
	return o != Granted
}

// PlatePlaceholder appears in violation records when no plate was confirmed.
const PlatePlaceholder = "UNKNOWN"

// ViolationRecord is created for every non-GRANTED outcome and handed off to
// the violation sinks. Immutable once created.
type ViolationRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	Plate          string          `json:"plate"`
	Reason         DecisionOutcome `json:"reason"`
	AlertnessRatio float64         `json:"alertness_ratio"`
}

// SessionResult is the aggregate result of one vehicle's workflow run.
type SessionResult struct {
	SessionID  string           `json:"session_id"`
	Outcome    DecisionOutcome  `json:"outcome"`
	Alertness  AlertnessResult  `json:"alertness"`
	Plate      *ConfirmedPlate  `json:"plate,omitempty"`
	Authorized bool             `json:"authorized"`
	Violation  *ViolationRecord `json:"violation,omitempty"`
	FramesUsed int              `json:"frames_used"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}
