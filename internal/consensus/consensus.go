// Package consensus converts noisy per-frame OCR reads into a single trusted
// plate string by exact-match voting over normalized candidates.
package consensus

import (
	"fmt"
	"regexp"

	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/utils"
)

type Status int

const (
	Pending Status = iota
	Confirmed
	Exhausted
)

type Config struct {
	// RequiredConfirmations is how many exact normalized-text matches a
	// candidate needs before it is trusted.
	RequiredConfirmations int
	// MaxAttempts bounds how many frames may be examined before the step
	// gives up with no confirmed plate.
	MaxAttempts int
	// MinConfidence discards OCR reads below this confidence before they
	// are allowed to vote.
	MinConfidence float64
	// Patterns are the accepted regional plate formats. A normalized
	// candidate matching none of them is discarded entirely.
	Patterns []string
}

func (c Config) Validate() error {
	if c.RequiredConfirmations <= 0 {
		return fmt.Errorf("required confirmations must be positive, got %d", c.RequiredConfirmations)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if len(c.Patterns) == 0 {
		return fmt.Errorf("at least one plate pattern is required")
	}
	return nil
}

// DefaultPatterns covers the plate formats the original deployment accepted.
var DefaultPatterns = []string{
	`^[A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{4}$`,
	`^[A-Z]{3}[0-9]{4}$`,
	`^[0-9]{2}[A-Z]{2}[0-9]{4}$`,
	`^[A-Z]{2}[0-9]{4}$`,
	`^[0-9]{3}[A-Z]{3}$`,
}

// Tracker owns the vote state for exactly one vehicle session. Distinct
// normalized strings never merge votes, even when they differ by a single
// OCR-confusable character.
type Tracker struct {
	cfg       Config
	patterns  []*regexp.Regexp
	votes     map[string]int
	attempts  int
	confirmed *toll.ConfirmedPlate
}

func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid plate pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Tracker{
		cfg:      cfg,
		patterns: patterns,
		votes:    make(map[string]int),
	}, nil
}

// Observe registers all candidates read from one frame and accounts the
// frame against the attempt budget. Candidates that fail confidence or
// format checks are discarded and do not vote in any direction.
func (t *Tracker) Observe(candidates []toll.PlateCandidate) Status {
	if t.confirmed != nil {
		return Confirmed
	}
	if t.attempts >= t.cfg.MaxAttempts {
		return Exhausted
	}
	t.attempts++

	for _, cand := range candidates {
		if cand.Confidence < t.cfg.MinConfidence {
			continue
		}
		normalized := utils.NormalizePlate(cand.RawText)
		if normalized == "" || !t.matchesPattern(normalized) {
			continue
		}
		t.votes[normalized]++
		if t.votes[normalized] >= t.cfg.RequiredConfirmations {
			t.confirmed = &toll.ConfirmedPlate{
				Text:          normalized,
				Confirmations: t.votes[normalized],
			}
			return Confirmed
		}
	}

	if t.attempts >= t.cfg.MaxAttempts {
		return Exhausted
	}
	return Pending
}

// Status reports the tracker state without consuming an attempt.
func (t *Tracker) Status() Status {
	switch {
	case t.confirmed != nil:
		return Confirmed
	case t.attempts >= t.cfg.MaxAttempts:
		return Exhausted
	default:
		return Pending
	}
}

// Confirmed returns the winning plate once the tracker reached Confirmed.
func (t *Tracker) Confirmed() (toll.ConfirmedPlate, bool) {
	if t.confirmed == nil {
		return toll.ConfirmedPlate{}, false
	}
	return *t.confirmed, true
}

// Votes returns a copy of the current vote tally, for audit trails.
func (t *Tracker) Votes() map[string]int {
	out := make(map[string]int, len(t.votes))
	for k, v := range t.votes {
		out[k] = v
	}
	return out
}

// Attempts returns how many frames have been examined so far.
func (t *Tracker) Attempts() int {
	return t.attempts
}

// Reset clears all vote state for a new session.
func (t *Tracker) Reset() {
	t.votes = make(map[string]int)
	t.attempts = 0
	t.confirmed = nil
}

func (t *Tracker) matchesPattern(normalized string) bool {
	for _, re := range t.patterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}
