package domain

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/weevil/internal/adapter"
	"gooze.dev/pkg/weevil/internal/controller"
	m "gooze.dev/pkg/weevil/internal/model"
)

func TestWorkflow_CalculatorEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs a module")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}

	example, err := filepath.Abs(filepath.Join("..", "..", "examples", "calculator"))
	require.NoError(t, err)

	t.Chdir(example)

	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	fs := adapter.NewLocalSourceFSAdapter()
	goFiles := adapter.NewLocalGoFileAdapter()
	runner := adapter.NewLocalTestRunnerAdapter()
	store := adapter.NewYAMLReportStore()

	w := NewWorkflow(
		fs,
		goFiles,
		adapter.NewGitDiffAdapter(),
		store,
		controller.NewSimpleUI(cmd),
		NewMutagen(goFiles, fs),
		NewOrchestrator(adapter.NewLocalCompilerAdapter(), NewInjector()),
		NewCoverageRecorder(runner),
		NewSinceFilter(),
		NewExecutor(runner),
	)

	output := t.TempDir()

	err = w.Test(context.Background(), TestArgs{
		EstimateArgs: EstimateArgs{Paths: []m.Path{"./..."}, Threads: 2},
		Output:       m.Path(output),
	})
	require.NoError(t, err, out.String())

	report, err := store.LoadReport(context.Background(), m.Path(filepath.Join(output, DefaultReportName)))
	require.NoError(t, err)

	byOriginal := make(map[string][]m.ReportMutant)
	for _, mutant := range report.Mutants {
		byOriginal[mutant.Original] = append(byOriginal[mutant.Original], mutant)
	}

	require.Len(t, byOriginal["a - b"], 1)
	subtract := byOriginal["a - b"][0]
	assert.Equal(t, "killed", subtract.Status)
	assert.Equal(t, "a + b", subtract.Mutated)
	assert.Equal(t, []string{".:TestSubtract"}, subtract.CoveringTests)

	require.Len(t, byOriginal["prefix + name"], 1)
	greet := byOriginal["prefix + name"][0]
	assert.Equal(t, "compileerror", greet.Status)
	assert.NotEmpty(t, greet.Reason)

	require.Len(t, byOriginal["!ok"], 1)
	assert.Equal(t, "nocoverage", byOriginal["!ok"][0].Status)

	assert.Positive(t, report.Score)
	assert.Contains(t, out.String(), "Mutation score:")
}
