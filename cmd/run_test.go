package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/weevil/internal/domain"
	domainmocks "gooze.dev/pkg/weevil/internal/domain/mocks"
	m "gooze.dev/pkg/weevil/internal/model"
)

// newTestRootCmd returns a root command with sub attached, logging into a
// temporary file, and swaps the package workflow for a mock.
func newTestRootCmd(t *testing.T, sub *cobra.Command) (*cobra.Command, *domainmocks.MockWorkflow) {
	t.Helper()

	t.Setenv("WEEVIL_LOG_FILENAME", filepath.Join(t.TempDir(), "weevil.log"))

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow

	t.Cleanup(func() { workflow = originalWorkflow })

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd, mockWorkflow
}

func TestRunCmd_Defaults(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return args.Threads == 2 &&
			!args.Shard.Enabled() &&
			args.Output == m.Path(".weevil-reports") &&
			args.Coverage == domain.CoveragePerTest &&
			args.TimeoutFactor == domain.DefaultTimeoutFactor &&
			args.TimeoutExtra == domain.DefaultTimeoutExtra &&
			args.TestTimeout == defaultTestTimeout &&
			!args.FailFast &&
			len(args.Kinds) == 0 &&
			args.Since == "" &&
			!args.Baseline
	})).Return(nil)

	cmd.SetArgs([]string{"run", "--parallel", "2", "./..."})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_WithSharding(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return args.Shard == domain.Shard{Index: 1, Total: 3}
	})).Return(nil)

	cmd.SetArgs([]string{"run", "--shard", "1/3", "./..."})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_InvalidShard(t *testing.T) {
	cmd, _ := newTestRootCmd(t, newRunCmd())

	cmd.SetArgs([]string{"run", "--shard", "3/3"})
	require.Error(t, cmd.Execute())
}

func TestRunCmd_InvalidCoverageMode(t *testing.T) {
	cmd, _ := newTestRootCmd(t, newRunCmd())

	cmd.SetArgs([]string{"run", "--coverage-analysis", "all"})
	require.Error(t, cmd.Execute())
}

func TestRunCmd_MultiplePaths(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return len(args.Paths) == 3 &&
			args.Paths[0] == m.Path("./cmd") &&
			args.Paths[1] == m.Path("./pkg") &&
			args.Paths[2] == m.Path("./internal")
	})).Return(nil)

	cmd.SetArgs([]string{"run", "./cmd", "./pkg", "./internal"})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_WithExcludePatterns(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return len(args.Exclude) == 2 &&
			args.Exclude[0] == "^generated_" &&
			args.Exclude[1] == "_gen\\.go$"
	})).Return(nil)

	cmd.SetArgs([]string{"run", "-x", "^generated_", "-x", "_gen\\.go$", "./..."})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_ExecutionOptions(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return args.Coverage == domain.CoverageOff &&
			args.TimeoutFactor == 3 &&
			args.TimeoutExtra == 10*time.Second &&
			args.TestTimeout == time.Minute &&
			args.FailFast &&
			assert.ObjectsAreEqual([]m.MutatorKind{m.MutatorArithmetic, m.MutatorBoolean}, args.Kinds)
	})).Return(nil)

	cmd.SetArgs([]string{
		"run",
		"--coverage-analysis", "off",
		"--timeout-factor", "3",
		"--timeout-extra", "10s",
		"--test-timeout", "1m",
		"--fail-fast",
		"--kinds", "arithmetic,boolean",
	})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_BuildOptions(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return assert.ObjectsAreEqual(m.BuildOptions{
			Tags:       []string{"integration", "linux"},
			ModFile:    "alt.mod",
			PGOProfile: "default.pgo",
		}, args.Build)
	})).Return(nil)

	cmd.SetArgs([]string{"run", "--tags", "integration,linux", "--modfile", "alt.mod", "--pgo", "default.pgo"})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_SinceAndBaseline(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSince string
	}{
		{name: "bare since diffs against main", args: []string{"run", "--since"}, wantSince: "main"},
		{name: "explicit target", args: []string{"run", "--since=release/1.2"}, wantSince: "release/1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

			mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
				return args.Since == tt.wantSince &&
					args.Baseline &&
					args.ProjectVersion == "v1.2.0"
			})).Return(nil)

			cmd.SetArgs(append(tt.args, "--baseline", "--project-version", "v1.2.0"))
			require.NoError(t, cmd.Execute())
		})
	}
}

func TestRunCmd_SinceFromEnvironment(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())
	t.Setenv("WEEVIL_SINCE_ENABLED", "true")

	mockWorkflow.EXPECT().Test(mock.Anything, mock.MatchedBy(func(args domain.TestArgs) bool {
		return args.Since == defaultSinceTarget
	})).Return(nil)

	cmd.SetArgs([]string{"run"})
	require.NoError(t, cmd.Execute())
}

func TestRunCmd_WorkflowError(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newRunCmd())

	mockWorkflow.EXPECT().Test(mock.Anything, mock.Anything).Return(domain.ErrInitialTestsFailed)

	cmd.SetArgs([]string{"run"})
	require.ErrorIs(t, cmd.Execute(), domain.ErrInitialTestsFailed)
}

func TestNewRunCmd(t *testing.T) {
	cmd := newRunCmd()

	assert.Equal(t, "run [paths...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, runLongDescription, cmd.Long)

	for _, name := range []string{
		runParallelFlagName, shardFlagName, coverageFlagName, timeoutFactorFlagName,
		timeoutExtraFlagName, testTimeoutFlagName, failFastFlagName, kindsFlagName,
		sinceFlagName, baselineFlagName, projectVersionFlagName, buildTagsFlagName,
		modFileFlagName, pgoFlagName,
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestListCmd(t *testing.T) {
	cmd, mockWorkflow := newTestRootCmd(t, newListCmd())

	mockWorkflow.EXPECT().Estimate(mock.Anything, mock.MatchedBy(func(args domain.EstimateArgs) bool {
		return len(args.Paths) == 1 &&
			args.Paths[0] == m.Path("./calc/...") &&
			assert.ObjectsAreEqual([]m.MutatorKind{m.MutatorComparison}, args.Kinds) &&
			args.Threads >= 1
	})).Return(nil)

	cmd.SetArgs([]string{"list", "-k", "comparison", "./calc/..."})
	require.NoError(t, cmd.Execute())
}
