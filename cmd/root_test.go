package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/weevil/internal/model"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []m.Path
	}{
		{"empty", []string{}, []m.Path{}},
		{"single", []string{"./..."}, []m.Path{m.Path("./...")}},
		{
			"multiple",
			[]string{"./cmd", "./pkg", "./internal"},
			[]m.Path{m.Path("./cmd"), m.Path("./pkg"), m.Path("./internal")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePaths(tt.args)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKinds(t *testing.T) {
	assert.Empty(t, parseKinds(nil))
	assert.Equal(t, []m.MutatorKind{m.MutatorLogical, m.MutatorUnary}, parseKinds([]string{"logical", "unary"}))
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "weevil", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{outputFlagName, excludeFlagName, verboseFlagName, logFileFlagName} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	t.Setenv("WEEVIL_LOG_FILENAME", filepath.Join(t.TempDir(), "weevil.log"))

	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "Supports Go-style path patterns")
}

func TestRootCmd_LogFileFlag(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "custom.log")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.AddCommand(&cobra.Command{
		Use: "noop",
		RunE: func(_ *cobra.Command, _ []string) error {
			globalLogger.Debug("debug line")
			return nil
		},
	})

	cmd.SetArgs([]string{"--log-file", logPath, "--verbose", "noop"})
	require.NoError(t, cmd.Execute())

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "debug line")
}

func TestInit(t *testing.T) {
	assert.NotNil(t, ui)
	assert.NotNil(t, sourceFSAdapter)
	assert.NotNil(t, goFileAdapter)
	assert.NotNil(t, diffAdapter)
	assert.NotNil(t, reportStore)
	assert.NotNil(t, compilerAdapter)
	assert.NotNil(t, testAdapter)
	assert.NotNil(t, mutagen)
	assert.NotNil(t, orchestrator)
	assert.NotNil(t, coverageRecorder)
	assert.NotNil(t, sinceFilter)
	assert.NotNil(t, executor)
	assert.NotNil(t, workflow)

	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Subset(t, names, []string{"run", "list", "init", "version"})
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(_ *cobra.Command, _ []string) error {
				fmt.Println("success")
				return nil
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		mockCmd.SetArgs([]string{})
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExecute_ProcessLevel_Success$")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS=1")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "success")
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(_ *cobra.Command, _ []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		mockCmd.SetArgs([]string{})
		rootCmd = mockCmd

		Execute() // exits with status 1
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExecute_ProcessLevel_Failure$")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(output), "error occurred")
}
