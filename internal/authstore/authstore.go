// Package authstore loads the authorized-plate list as an immutable
// per-session snapshot. A missing or unreadable list yields an empty set, so
// every vehicle is denied rather than waved through.
package authstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"tollgate-service/internal/utils"
)

// Snapshot is a read-only view of the authorization list, taken once at
// session start. Administrative updates land in the file and take effect
// only for sessions created afterwards.
type Snapshot struct {
	plates   map[string]struct{}
	loadedAt time.Time
}

// Load reads the newline-delimited plate file at path. Read failures are
// logged and degrade to an empty snapshot (fail-closed), never an error.
func Load(path string, log zerolog.Logger) *Snapshot {
	snap := &Snapshot{
		plates:   make(map[string]struct{}),
		loadedAt: time.Now(),
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("authorization list unavailable, failing closed with empty set")
		return snap
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		normalized := utils.NormalizePlate(scanner.Text())
		if normalized == "" {
			continue
		}
		snap.plates[normalized] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("authorization list read failed, failing closed with empty set")
		return &Snapshot{plates: make(map[string]struct{}), loadedAt: snap.loadedAt}
	}

	log.Info().Int("plates", len(snap.plates)).Str("path", path).Msg("loaded authorization snapshot")
	return snap
}

// Authorized tests membership of an already-normalized plate string.
func (s *Snapshot) Authorized(normalized string) bool {
	_, ok := s.plates[normalized]
	return ok
}

func (s *Snapshot) Len() int {
	return len(s.plates)
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Append adds a plate to the list file, creating it if needed. The running
// snapshot is untouched; the addition applies to sessions created after it.
func Append(path, rawPlate string) (string, error) {
	normalized := utils.NormalizePlate(rawPlate)
	if normalized == "" {
		return "", fmt.Errorf("plate %q is empty after normalization", rawPlate)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create authorization list directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open authorization list: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, normalized); err != nil {
		return "", fmt.Errorf("append to authorization list: %w", err)
	}
	return normalized, nil
}
