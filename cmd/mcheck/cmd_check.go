package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/mcheck/internal/checkpoint"
	"github.com/funvibe/mcheck/internal/config"
	"github.com/funvibe/mcheck/internal/eventbus/localbus"
	"github.com/funvibe/mcheck/internal/ic3ia"
	"github.com/funvibe/mcheck/internal/kind"
	"github.com/funvibe/mcheck/internal/solver/memsolver"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
	"github.com/funvibe/mcheck/internal/transys/fixture"
)

var (
	fixtureName string
	neverEquals int
	producerCt  int
	maxStep     int64
	maxFrame    int64
	confirmMS   int64
	checkRunID  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run k-induction and IC3IA cooperatively over a bundled fixture system",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&fixtureName, "fixture", "counter", "bundled system: counter|sharedbuffer")
	checkCmd.Flags().IntVar(&neverEquals, "never", 3, "counter fixture: the disallowed counter value")
	checkCmd.Flags().IntVar(&producerCt, "producers", 2, "sharedbuffer fixture: number of contending producers")
	checkCmd.Flags().Int64Var(&maxStep, "max-step", 0, "bound on k-induction's step counter (0 = unbounded)")
	checkCmd.Flags().Int64Var(&maxFrame, "max-frame", 0, "bound on IC3IA's frame count (0 = unbounded)")
	checkCmd.Flags().Int64Var(&confirmMS, "confirm-poll-ms", 0, "k-induction confirm-phase poll interval, in ms (0 = default)")
	checkCmd.Flags().StringVar(&checkRunID, "run-id", "", "run identifier for checkpointing (random if empty)")
}

func buildFixture(store *term.Store) (transys.System, error) {
	switch fixtureName {
	case "counter":
		return fixture.NewTwoBitCounter(store, neverEquals), nil
	case "sharedbuffer":
		if producerCt < 2 {
			return nil, fmt.Errorf("--producers must be at least 2")
		}
		return fixture.NewSharedBuffer(store, producerCt), nil
	default:
		return nil, fmt.Errorf("unknown --fixture %q (want counter|sharedbuffer)", fixtureName)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	runID := checkRunID
	if runID == "" {
		runID = uuid.New().String()
	}

	cfg := config.Default()
	cfg.MaxStep = maxStep
	cfg.MaxFrame = maxFrame
	if confirmMS > 0 {
		cfg.ConfirmPollIntervalMS = confirmMS
	}

	store := term.NewStore()
	sys, err := buildFixture(store)
	if err != nil {
		return err
	}
	bus := localbus.New()

	var cp *checkpoint.Store
	if checkpointPath != "" {
		cp, err = checkpoint.Open(checkpointPath)
		if err != nil {
			return fmt.Errorf("open checkpoint database: %w", err)
		}
		defer cp.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	kindSolver := memsolver.New(store)
	kindEngine := kind.New(store, sys, kindSolver, bus, nil, cfg, logger)
	eg.Go(func() error {
		runErr := kindEngine.Run(egCtx)
		if cp != nil {
			k, invariants, optNames, unkNames := kindEngine.Snapshot()
			if saveErr := cp.SaveKind(context.Background(), checkpoint.KindSnapshot{
				RunID: runID, K: k, Invariants: invariants,
				OptimisticNames: optNames, UnknownNames: unkNames,
			}); saveErr != nil && runErr == nil {
				runErr = saveErr
			}
		}
		if runErr != nil {
			return fmt.Errorf("k-induction: %w", runErr)
		}
		return nil
	})

	for _, prop := range sys.PropsListOfBound0() {
		prop := prop
		propSolver := memsolver.New(store)
		engine, outcome := ic3ia.New(store, sys, propSolver, bus, cfg, logger, prop)
		if outcome.Kind != ic3ia.Success {
			logIC3IAOutcome(prop.Name, outcome)
			continue
		}
		eg.Go(func() error {
			outcome := engine.Run(egCtx)
			logIC3IAOutcome(prop.Name, outcome)
			if cp != nil {
				pi, frames := engine.Snapshot()
				top := int64(len(frames) - 1)
				saveErr := cp.SaveIC3IA(context.Background(), checkpoint.IC3IASnapshot{
					RunID: runID, PropName: prop.Name, FrameTop: top,
					Predicates: pi, Frames: frames,
				})
				if saveErr != nil {
					return saveErr
				}
			}
			if outcome.Kind == ic3ia.InternalInconsistency {
				return outcome.Err
			}
			return nil
		})
	}

	runErr := eg.Wait()

	printResults(runID, bus)
	if runErr != nil {
		return runErr
	}
	return nil
}

func logIC3IAOutcome(propName string, outcome ic3ia.Outcome) {
	switch outcome.Kind {
	case ic3ia.Success:
		logger.Debug("ic3ia settled", zap.String("property", propName))
	case ic3ia.Failure:
		logger.Debug("ic3ia falsified", zap.String("property", propName))
	case ic3ia.FrameBoundExceeded:
		logger.Warn("ic3ia stopped at frame bound", zap.String("property", propName))
	case ic3ia.InternalInconsistency:
		logger.Error("ic3ia internal inconsistency", zap.String("property", propName), zap.Error(outcome.Err))
	}
}

func printResults(runID string, bus *localbus.Bus) {
	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		useColor = false
	}
	color.NoColor = !useColor

	fmt.Printf("run %s:\n", runID)
	latest := map[string]transys.Status{}
	for _, pub := range bus.Statuses() {
		latest[pub.Name] = pub.Status
	}
	for name, status := range latest {
		var painted string
		switch status.Kind {
		case transys.Invariant:
			painted = color.GreenString("invariant")
		case transys.False:
			painted = color.RedString("false")
		case transys.KTrue:
			painted = color.YellowString("k-true(%d)", status.K)
		default:
			painted = color.New(color.Faint).Sprint("unknown")
		}
		fmt.Printf("  %-32s %s\n", name, painted)
	}
}
