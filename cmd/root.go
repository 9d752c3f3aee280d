// Package cmd provides the root command and CLI setup for weevil.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/weevil/internal/adapter"
	"gooze.dev/pkg/weevil/internal/controller"
	"gooze.dev/pkg/weevil/internal/domain"
	m "gooze.dev/pkg/weevil/internal/model"
)

var sourceFSAdapter adapter.SourceFSAdapter
var goFileAdapter adapter.GoFileAdapter
var diffAdapter adapter.DiffAdapter
var reportStore adapter.ReportStore
var compilerAdapter adapter.CompilerAdapter
var testAdapter adapter.TestRunnerAdapter
var mutagen domain.Mutagen
var orchestrator domain.Orchestrator
var coverageRecorder domain.CoverageRecorder
var sinceFilter domain.SinceFilter
var executor domain.Executor
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var verboseFlag bool
var logFileFlag string

func init() {
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	diffAdapter = adapter.NewGitDiffAdapter()
	reportStore = adapter.NewYAMLReportStore()
	compilerAdapter = adapter.NewLocalCompilerAdapter()
	testAdapter = adapter.NewLocalTestRunnerAdapter()

	mutagen = domain.NewMutagen(goFileAdapter, sourceFSAdapter)
	orchestrator = domain.NewOrchestrator(compilerAdapter, domain.NewInjector())
	coverageRecorder = domain.NewCoverageRecorder(testAdapter)
	sinceFilter = domain.NewSinceFilter()
	executor = domain.NewExecutor(testAdapter)

	workflow = domain.NewWorkflow(
		sourceFSAdapter,
		goFileAdapter,
		diffAdapter,
		reportStore,
		ui,
		mutagen,
		orchestrator,
		coverageRecorder,
		sinceFilter,
		executor,
	)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan multiple directories`

const rootLongDescription = `Weevil is a mutation testing tool for Go. It compiles every mutant of a
module into a single build, selects one mutant per test process and reports
which mutants your tests kill.

` + pathPatternsHelp

const runLongDescription = `Run mutation testing for the given paths (default: current module).

` + pathPatternsHelp

const listLongDescription = `List source files and the number of mutants weevil would generate.

` + pathPatternsHelp

const initLongDescription = `Write weevil.yaml in the current directory with every setting at its
current value (defaults, environment and flags applied):

  output                  report directory
  paths.exclude           regular expressions of files to skip
  run.parallel            worker count for coverage and mutant runs
  run.coverage_analysis   perTest, or off to run every test of the package
  run.timeout_factor      multiplier of the baseline test duration
  run.timeout_extra       time added to every mutant deadline
  run.test_timeout        deadline of runs with no mutant active
  run.fail_fast           stop a mutant run at its first failing test
  run.kinds               mutator kinds to apply
  since.enabled           only test mutants changed since since.target
  since.target            git reference to diff against (default: main)
  baseline.enabled        name the report after project_version
  project_version         version the baseline report is stored under
  build.tags              build tags passed to every compilation
  build.modfile           alternate go.mod passed as -modfile
  build.pgo_profile       profile passed as -pgo
  log.*                   log file, level and rotation

An existing weevil.yaml is never overwritten.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weevil",
		Short: "Go mutation testing tool",
		Long:  rootLongDescription,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for mutation testing reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file path (default from log.filename)")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running workflow, which still saves its report.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
