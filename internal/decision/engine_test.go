package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate-service/internal/domain/toll"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func alert(ratio float64) toll.AlertnessResult {
	return toll.AlertnessResult{Ratio: ratio, Classification: toll.Alert}
}

func drowsy(ratio float64) toll.AlertnessResult {
	return toll.AlertnessResult{Ratio: ratio, Classification: toll.Drowsy}
}

func indeterminate() toll.AlertnessResult {
	return toll.AlertnessResult{Classification: toll.Indeterminate}
}

func plate(text string) *toll.ConfirmedPlate {
	return &toll.ConfirmedPlate{Text: text, Confirmations: 2}
}

func TestDecidePriorityOrder(t *testing.T) {
	cases := []struct {
		name       string
		alertness  toll.AlertnessResult
		plate      *toll.ConfirmedPlate
		authorized bool
		want       toll.DecisionOutcome
	}{
		{"no plate alert", alert(0.1), nil, false, toll.DeniedInconclusive},
		{"no plate drowsy", drowsy(0.6), nil, false, toll.DeniedInconclusive},
		{"no plate indeterminate", indeterminate(), nil, true, toll.DeniedInconclusive},
		{"unauthorized drowsy", drowsy(0.5), plate("MH01AB1234"), false, toll.DeniedUnauthorizedDrowsy},
		{"unauthorized alert", alert(0.1), plate("MH01AB1234"), false, toll.DeniedUnauthorized},
		{"unauthorized indeterminate", indeterminate(), plate("MH01AB1234"), false, toll.DeniedUnauthorized},
		{"authorized drowsy", drowsy(0.5), plate("MH01AB1234"), true, toll.DeniedDrowsy},
		{"authorized alert", alert(0.1), plate("MH01AB1234"), true, toll.Granted},
		{"authorized indeterminate", indeterminate(), plate("MH01AB1234"), true, toll.DeniedInconclusive},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			outcome, _ := Decide(c.alertness, c.plate, c.authorized, now)
			assert.Equal(t, c.want, outcome)
		})
	}
}

func TestDecideGrantedProducesNoViolation(t *testing.T) {
	outcome, violation := Decide(alert(0.11), plate("MH01AB1234"), true, now)
	assert.Equal(t, toll.Granted, outcome)
	assert.Nil(t, violation)
}

func TestDecideDenialProducesViolation(t *testing.T) {
	outcome, violation := Decide(drowsy(0.44), plate("MH01AB1234"), false, now)
	assert.Equal(t, toll.DeniedUnauthorizedDrowsy, outcome)
	require.NotNil(t, violation)
	assert.Equal(t, "MH01AB1234", violation.Plate)
	assert.Equal(t, toll.DeniedUnauthorizedDrowsy, violation.Reason)
	assert.InDelta(t, 0.44, violation.AlertnessRatio, 1e-9)
	assert.Equal(t, now, violation.Timestamp)
}

func TestDecideInconclusiveUsesPlaceholder(t *testing.T) {
	_, violation := Decide(alert(0.0), nil, false, now)
	require.NotNil(t, violation)
	assert.Equal(t, toll.PlatePlaceholder, violation.Plate)
}

func TestDecideUnauthorizedDominatesDrowsy(t *testing.T) {
	outcome, _ := Decide(drowsy(0.9), plate("MH01AB1234"), false, now)
	assert.Equal(t, toll.DeniedUnauthorizedDrowsy, outcome)
	assert.NotEqual(t, toll.DeniedDrowsy, outcome)
}

func TestDecideIsIdempotent(t *testing.T) {
	p := plate("MH01AB1234")
	a := drowsy(0.61)
	o1, v1 := Decide(a, p, false, now)
	o2, v2 := Decide(a, p, false, now)
	assert.Equal(t, o1, o2)
	assert.Equal(t, v1, v2)
}
