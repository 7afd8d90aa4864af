package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tollgate-service/internal/config"
	"tollgate-service/internal/consensus"
	"tollgate-service/internal/db"
	"tollgate-service/internal/drowsiness"
	"tollgate-service/internal/framesource"
	gatehttp "tollgate-service/internal/http"
	"tollgate-service/internal/probe"
	"tollgate-service/internal/repository"
	"tollgate-service/internal/service"
	"tollgate-service/internal/violationlog"
	"tollgate-service/internal/workflow"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		mode       = flag.String("mode", "live", "frame source mode: live or batch")
		imagesDir  = flag.String("images", "", "directory of still images for batch mode")
		cameraIdx  = flag.Int("camera", -1, "camera index override for live mode")
		laneID     = flag.String("lane", "lane-1", "lane identifier for persisted events")
		serve      = flag.Bool("serve", false, "start the HTTP query API alongside the lane")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log, *mode, *imagesDir, *cameraIdx, *laneID, *serve); err != nil {
		log.Fatal().Err(err).Msg("tollgate service failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func run(cfg *config.Config, log zerolog.Logger, mode, imagesDir string, cameraIdx int, laneID string, serve bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := openSource(cfg, mode, imagesDir, cameraIdx)
	if err != nil {
		// Fatal: no session can start without a frame source.
		return err
	}
	defer source.Close()

	controller, err := newController(cfg, source, log)
	if err != nil {
		return err
	}

	vlog, err := violationlog.Open(cfg.Paths.ViolationLog)
	if err != nil {
		return err
	}
	defer vlog.Close()

	var repo *repository.GateRepository
	if cfg.Database.DSN != "" {
		database, err := db.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		repo = repository.NewGateRepository(database)
	} else {
		log.Warn().Msg("no database configured, gate events will not be persisted")
	}

	gateService := service.NewGateService(cfg, controller, repo, vlog, laneID, log)

	if serve {
		go runAPI(cfg, gateService, log)
	}

	commands := make(chan service.Command)
	go readCommands(ctx, commands, log)

	log.Info().Str("mode", mode).Str("lane", laneID).Msg("tollgate lane started")
	err = gateService.RunLane(ctx, commands, mode == "live")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openSource(cfg *config.Config, mode, imagesDir string, cameraIdx int) (framesource.Source, error) {
	switch mode {
	case "batch":
		if imagesDir == "" {
			return nil, fmt.Errorf("batch mode requires -images")
		}
		return framesource.NewImageDirSource(imagesDir)
	case "live":
		camCfg := framesource.CameraConfig{
			Index:       cfg.Camera.Index,
			Width:       cfg.Camera.Width,
			Height:      cfg.Camera.Height,
			ReadRetries: cfg.Camera.ReadRetries,
		}
		if cameraIdx >= 0 {
			camCfg.Index = cameraIdx
		}
		return framesource.OpenCamera(camCfg)
	default:
		return nil, fmt.Errorf("unknown mode %q, expected live or batch", mode)
	}
}

func newController(cfg *config.Config, source framesource.Source, log zerolog.Logger) (*workflow.Controller, error) {
	var eyes probe.EyeStateProbe = probe.NullEyeProbe{}
	if cfg.Probes.EyeEndpoint != "" {
		eyes = probe.NewHTTPEyeProbe(probe.HTTPConfig{
			EyeEndpoint: cfg.Probes.EyeEndpoint,
			Timeout:     cfg.Probes.Timeout,
		})
	}

	var plates probe.PlateReader = probe.FilenamePlateReader{}
	if cfg.Probes.PlateEndpoint != "" {
		plates = probe.NewHTTPPlateReader(probe.HTTPConfig{
			PlateEndpoint: cfg.Probes.PlateEndpoint,
			Timeout:       cfg.Probes.Timeout,
		})
	}

	wfCfg := workflow.Config{
		Budgets: workflow.Budgets{
			FaceFrames:  cfg.Workflow.FaceFrameBudget,
			PlateFrames: cfg.Workflow.PlateFrameBudget,
		},
		Drowsiness: drowsiness.Config{
			WindowFrames:       cfg.Drowsiness.WindowFrames(cfg.Camera.FPS),
			DrowsyThreshold:    cfg.Drowsiness.DrowsyThreshold,
			CountUnknownFrames: cfg.Drowsiness.CountUnknownFrames,
		},
		Consensus: consensus.Config{
			RequiredConfirmations: cfg.Plate.RequiredConfirmations,
			MaxAttempts:           cfg.Workflow.PlateFrameBudget,
			MinConfidence:         cfg.Plate.MinConfidence,
			Patterns:              cfg.Plate.Patterns,
		},
	}
	return workflow.NewController(wfCfg, source, eyes, plates, log)
}

// readCommands maps stdin lines to lane commands: q cancels, r restarts.
func readCommands(ctx context.Context, commands chan<- service.Command, log zerolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var cmd service.Command
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "q", "quit":
			cmd = service.CommandCancel
		case "r", "restart":
			cmd = service.CommandRestart
		default:
			continue
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Msg("stdin command reader stopped")
	}
}

func runAPI(cfg *config.Config, gateService *service.GateService, log zerolog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gatehttp.NewCORSMiddleware(cfg.Server.AllowedOrigins))

	handler := gatehttp.NewHandler(gateService, cfg, log)
	handler.Register(r, gatehttp.NewAuthMiddleware(cfg.Auth.JWTSecret))

	log.Info().Str("addr", cfg.Server.Addr).Msg("query API listening")
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Error().Err(err).Msg("query API stopped")
	}
}
