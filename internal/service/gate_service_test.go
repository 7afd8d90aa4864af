package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate-service/internal/config"
	"tollgate-service/internal/consensus"
	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/drowsiness"
	"tollgate-service/internal/framesource"
	"tollgate-service/internal/violationlog"
	"tollgate-service/internal/workflow"
)

type stubSource struct {
	frames int
	served int
	block  bool
}

func (s *stubSource) Next(ctx context.Context) (framesource.Frame, error) {
	if s.block {
		<-ctx.Done()
		return framesource.Frame{}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return framesource.Frame{}, err
	}
	if s.served >= s.frames {
		return framesource.Frame{}, framesource.ErrExhausted
	}
	frame := framesource.Frame{Index: s.served, Timestamp: time.Now()}
	s.served++
	return frame, nil
}

func (s *stubSource) Close() error { return nil }

type stubEyes struct{}

func (stubEyes) Probe(_ context.Context, _ framesource.Frame) (toll.EyeState, error) {
	return toll.EyeOpen, nil
}

type stubPlates struct {
	text string
}

func (p stubPlates) Read(_ context.Context, _ framesource.Frame) ([]toll.PlateCandidate, error) {
	if p.text == "" {
		return nil, nil
	}
	return []toll.PlateCandidate{{RawText: p.text, Confidence: 0.9}}, nil
}

func newTestService(t *testing.T, source framesource.Source, plateText, authorizedPlate string) (*GateService, string) {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Paths.AuthorizedPlates = filepath.Join(dir, "authorized_plates.txt")
	cfg.Paths.ViolationLog = filepath.Join(dir, "violations.log")

	if authorizedPlate != "" {
		require.NoError(t, os.WriteFile(cfg.Paths.AuthorizedPlates, []byte(authorizedPlate+"\n"), 0o644))
	}

	wfCfg := workflow.Config{
		Budgets: workflow.Budgets{FaceFrames: 10, PlateFrames: 10},
		Drowsiness: drowsiness.Config{
			WindowFrames:       5,
			DrowsyThreshold:    0.3,
			CountUnknownFrames: true,
		},
		Consensus: consensus.Config{
			RequiredConfirmations: 2,
			MaxAttempts:           10,
			MinConfidence:         0.4,
			Patterns:              consensus.DefaultPatterns,
		},
	}
	controller, err := workflow.NewController(wfCfg, source, stubEyes{}, stubPlates{text: plateText}, zerolog.Nop())
	require.NoError(t, err)

	vlog, err := violationlog.Open(cfg.Paths.ViolationLog)
	require.NoError(t, err)
	t.Cleanup(func() { vlog.Close() })

	return NewGateService(cfg, controller, nil, vlog, "lane-1", zerolog.Nop()), cfg.Paths.ViolationLog
}

func TestRunLaneSingleBatchSessionGranted(t *testing.T) {
	svc, logPath := newTestService(t, &stubSource{frames: 50}, "MH01AB1234", "MH01AB1234")

	err := svc.RunLane(context.Background(), make(chan Command), false)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, data, "granted sessions must not log violations")
}

func TestRunLaneLogsViolationForUnauthorizedPlate(t *testing.T) {
	svc, logPath := newTestService(t, &stubSource{frames: 50}, "DL08CA5555", "MH01AB1234")

	err := svc.RunLane(context.Background(), make(chan Command), false)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DL08CA5555")
	assert.Contains(t, string(data), "DENIED_UNAUTHORIZED")
}

func TestRunLaneCancelCommandStopsLane(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{block: true}, "MH01AB1234", "MH01AB1234")

	commands := make(chan Command)
	done := make(chan error, 1)
	go func() {
		done <- svc.RunLane(context.Background(), commands, true)
	}()

	commands <- CommandCancel
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lane did not stop after cancel command")
	}
}

func TestRunLaneRestartStartsFreshSession(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{block: true}, "MH01AB1234", "MH01AB1234")

	commands := make(chan Command)
	done := make(chan error, 1)
	go func() {
		done <- svc.RunLane(context.Background(), commands, true)
	}()

	commands <- CommandRestart
	select {
	case err := <-done:
		t.Fatalf("lane stopped after restart: %v", err)
	case <-time.After(100 * time.Millisecond):
		// Still running a fresh session, as expected.
	}

	commands <- CommandCancel
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lane did not stop after cancel command")
	}
}

func TestRunLaneContextCancellation(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{block: true}, "MH01AB1234", "MH01AB1234")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.RunLane(ctx, make(chan Command), true)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("lane did not stop after context cancellation")
	}
}
