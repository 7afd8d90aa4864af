package violationlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate-service/internal/domain/toll"
)

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "violations.log")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, l.Append(toll.ViolationRecord{
		Timestamp:      ts,
		Plate:          "MH01AB1234",
		Reason:         toll.DeniedDrowsy,
		AlertnessRatio: 0.444,
	}))
	require.NoError(t, l.Append(toll.ViolationRecord{
		Timestamp: ts,
		Reason:    toll.DeniedInconclusive,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2026-03-14T09:30:00Z|MH01AB1234|DENIED_DROWSY|0.444", lines[0])
	assert.Equal(t, "2026-03-14T09:30:00Z|UNKNOWN|DENIED_INCONCLUSIVE|0.000", lines[1])
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "violations.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(toll.ViolationRecord{
		Timestamp: time.Now(),
		Plate:     "MH01AB1234",
		Reason:    toll.DeniedUnauthorized,
	}))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "existing\n"))
	assert.Contains(t, string(data), "DENIED_UNAUTHORIZED")
}
