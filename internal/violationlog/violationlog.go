// Package violationlog appends one line per denial to a plain-text audit
// file: timestamp, plate (or placeholder), reason code, alertness ratio.
package violationlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tollgate-service/internal/domain/toll"
)

type Logger struct {
	mu sync.Mutex
	f  *os.File
}

func Open(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create violation log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open violation log: %w", err)
	}
	return &Logger{f: f}, nil
}

// Append writes one record. Records are flushed per write so a crash loses
// at most the in-flight line.
func (l *Logger) Append(rec toll.ViolationRecord) error {
	plate := rec.Plate
	if plate == "" {
		plate = toll.PlatePlaceholder
	}
	line := fmt.Sprintf("%s|%s|%s|%.3f\n",
		rec.Timestamp.Format(time.RFC3339), plate, rec.Reason, rec.AlertnessRatio)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("append violation record: %w", err)
	}
	return l.f.Sync()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
