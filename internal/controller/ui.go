// Package controller provides output adapters for displaying mutation testing results.
package controller

import (
	"context"

	"github.com/spf13/cobra"

	m "gooze.dev/pkg/weevil/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeEstimate StartMode = iota
	ModeTest
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithEstimateMode sets the UI to estimation mode.
func WithEstimateMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeEstimate
	}
}

// WithTestMode sets the UI to test execution mode.
func WithTestMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeTest
	}
}

// UI displays the progress and outcome of a run.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error
	DisplayConcurrencyInfo(ctx context.Context, threads int, shard string, count int)
	DisplayUpcomingTestsInfo(ctx context.Context, count int)
	DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, worker int)
	DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, result m.MutantResult)
	DisplaySummary(ctx context.Context, summary m.Summary)
	DisplayMutationScore(ctx context.Context, score float64)
}

// NewUI returns the live TUI on an interactive terminal and the plain line
// printer otherwise. Both write to cmd's output.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}
