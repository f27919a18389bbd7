package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/mcheck/internal/checkpoint"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

var statusRunID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the checkpointed state of a prior run",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run identifier to look up (required)")
	statusCmd.MarkFlagRequired("run-id")
}

// displayResolver mints a StateVar per distinct qualified name the first
// time it is seen and reuses it thereafter, so terms decoded purely for
// printing keep internally-consistent identity without needing to replay
// the original engine's abvar/clone construction.
func displayResolver() checkpoint.VarResolver {
	seen := make(map[string]*statevar.StateVar)
	return func(qualifiedName string) (*statevar.StateVar, bool) {
		if sv, ok := seen[qualifiedName]; ok {
			return sv, true
		}
		sv := statevar.New(qualifiedName, nil, statevar.Bool)
		seen[qualifiedName] = sv
		return sv, true
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	if checkpointPath == "" {
		return fmt.Errorf("--checkpoint is required for status")
	}
	cp, err := checkpoint.Open(checkpointPath)
	if err != nil {
		return fmt.Errorf("open checkpoint database: %w", err)
	}
	defer cp.Close()

	ctx := context.Background()
	store := term.NewStore()
	resolve := displayResolver()

	kindSnap, ok, err := cp.LoadKind(ctx, store, resolve, statusRunID)
	if err != nil {
		return fmt.Errorf("load k-induction snapshot: %w", err)
	}
	if ok {
		fmt.Printf("k-induction: k=%d invariants=%d optimistic=%v unknown=%v\n",
			kindSnap.K, len(kindSnap.Invariants), kindSnap.OptimisticNames, kindSnap.UnknownNames)
	} else {
		fmt.Println("k-induction: no checkpoint recorded")
	}

	for _, name := range kindSnap.OptimisticNames {
		printIC3IASnapshot(ctx, cp, store, resolve, name)
	}
	for _, name := range kindSnap.UnknownNames {
		printIC3IASnapshot(ctx, cp, store, resolve, name)
	}
	return nil
}

func printIC3IASnapshot(ctx context.Context, cp *checkpoint.Store, store *term.Store, resolve checkpoint.VarResolver, propName string) {
	snap, ok, err := cp.LoadIC3IA(ctx, store, resolve, statusRunID, propName)
	if err != nil {
		fmt.Printf("ic3ia[%s]: load error: %v\n", propName, err)
		return
	}
	if !ok {
		return
	}
	fmt.Printf("ic3ia[%s]: frame_top=%d predicates=%d frames=%d\n",
		propName, snap.FrameTop, len(snap.Predicates), len(snap.Frames))
	for i, lvl := range snap.Frames {
		fmt.Printf("  F_%d: %d clause(s)\n", i, len(lvl))
	}
}
