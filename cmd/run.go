package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/weevil/internal/domain"
	m "gooze.dev/pkg/weevil/internal/model"
)

var runParallelFlag int
var runShardFlag string
var runCoverageFlag string
var runTimeoutFactorFlag float64
var runTimeoutExtraFlag time.Duration
var runTestTimeoutFlag time.Duration
var runFailFastFlag bool
var runKindsFlag []string
var runSinceFlag string
var runBaselineFlag bool
var runProjectVersionFlag string
var runBuildTagsFlag []string
var runModFileFlag string
var runPGOFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			testArgs, err := buildTestArgs(args)
			if err != nil {
				return err
			}

			return workflow.Test(cmd.Context(), testArgs)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for mutation testing")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().StringVarP(&runShardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	cmd.Flags().StringVar(&runCoverageFlag, coverageFlagName, viper.GetString(coverageConfigKey), "coverage analysis mode: perTest or off")
	bindFlagToConfig(cmd.Flags().Lookup(coverageFlagName), coverageConfigKey)

	cmd.Flags().Float64Var(&runTimeoutFactorFlag, timeoutFactorFlagName, viper.GetFloat64(timeoutFactorConfigKey), "multiplier applied to baseline test durations for each mutant run")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutFactorFlagName), timeoutFactorConfigKey)

	cmd.Flags().DurationVar(&runTimeoutExtraFlag, timeoutExtraFlagName, viper.GetDuration(timeoutExtraConfigKey), "time added to every mutant run deadline")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutExtraFlagName), timeoutExtraConfigKey)

	cmd.Flags().DurationVar(&runTestTimeoutFlag, testTimeoutFlagName, viper.GetDuration(testTimeoutConfigKey), "deadline of each test run with no mutant active")
	bindFlagToConfig(cmd.Flags().Lookup(testTimeoutFlagName), testTimeoutConfigKey)

	cmd.Flags().BoolVar(&runFailFastFlag, failFastFlagName, viper.GetBool(failFastConfigKey), "stop a mutant run at its first failing test")
	bindFlagToConfig(cmd.Flags().Lookup(failFastFlagName), failFastConfigKey)

	cmd.Flags().StringSliceVarP(&runKindsFlag, kindsFlagName, "k", viper.GetStringSlice(kindsConfigKey), "mutator kinds to apply (default: all)")
	bindFlagToConfig(cmd.Flags().Lookup(kindsFlagName), kindsConfigKey)

	cmd.Flags().StringVar(&runSinceFlag, sinceFlagName, viper.GetString(sinceTargetConfigKey), "only test mutants affected by changes since this git reference")
	cmd.Flags().Lookup(sinceFlagName).NoOptDefVal = defaultSinceTarget
	bindFlagToConfig(cmd.Flags().Lookup(sinceFlagName), sinceTargetConfigKey)

	cmd.Flags().BoolVar(&runBaselineFlag, baselineFlagName, viper.GetBool(baselineConfigKey), "store the report under the project version")
	bindFlagToConfig(cmd.Flags().Lookup(baselineFlagName), baselineConfigKey)

	cmd.Flags().StringVar(&runProjectVersionFlag, projectVersionFlagName, viper.GetString(projectVersionConfigKey), "project version naming baseline reports")
	bindFlagToConfig(cmd.Flags().Lookup(projectVersionFlagName), projectVersionConfigKey)

	cmd.Flags().StringSliceVar(&runBuildTagsFlag, buildTagsFlagName, viper.GetStringSlice(buildTagsConfigKey), "build tags passed to every compilation")
	bindFlagToConfig(cmd.Flags().Lookup(buildTagsFlagName), buildTagsConfigKey)

	cmd.Flags().StringVar(&runModFileFlag, modFileFlagName, viper.GetString(modFileConfigKey), "alternate go.mod passed as -modfile")
	bindFlagToConfig(cmd.Flags().Lookup(modFileFlagName), modFileConfigKey)

	cmd.Flags().StringVar(&runPGOFlag, pgoFlagName, viper.GetString(pgoConfigKey), "profile passed as -pgo")
	bindFlagToConfig(cmd.Flags().Lookup(pgoFlagName), pgoConfigKey)
}

// buildTestArgs resolves flags, environment and config file into the workflow input.
func buildTestArgs(args []string) (domain.TestArgs, error) {
	shard, err := domain.ParseShard(runShardFlag)
	if err != nil {
		return domain.TestArgs{}, err
	}

	coverage, err := domain.ParseCoverageMode(viper.GetString(coverageConfigKey))
	if err != nil {
		return domain.TestArgs{}, err
	}

	threads := viper.GetInt(runParallelConfigKey)
	if threads < 1 {
		return domain.TestArgs{}, fmt.Errorf("invalid %s %d: must be at least 1", runParallelFlagName, threads)
	}

	return domain.TestArgs{
		EstimateArgs: domain.EstimateArgs{
			Paths:   parsePaths(args),
			Exclude: viper.GetStringSlice(excludeConfigKey),
			Kinds:   parseKinds(viper.GetStringSlice(kindsConfigKey)),
			Threads: threads,
		},
		Output:        m.Path(viper.GetString(outputFlagName)),
		Shard:         shard,
		Coverage:      coverage,
		TestTimeout:   viper.GetDuration(testTimeoutConfigKey),
		TimeoutFactor: viper.GetFloat64(timeoutFactorConfigKey),
		TimeoutExtra:  viper.GetDuration(timeoutExtraConfigKey),
		FailFast:      viper.GetBool(failFastConfigKey),
		Build: m.BuildOptions{
			Tags:       viper.GetStringSlice(buildTagsConfigKey),
			ModFile:    m.Path(viper.GetString(modFileConfigKey)),
			PGOProfile: m.Path(viper.GetString(pgoConfigKey)),
		},
		Since:          sinceTarget(),
		Baseline:       viper.GetBool(baselineConfigKey),
		ProjectVersion: viper.GetString(projectVersionConfigKey),
	}, nil
}

func parseKinds(values []string) []m.MutatorKind {
	kinds := make([]m.MutatorKind, 0, len(values))
	for _, value := range values {
		kinds = append(kinds, m.MutatorKind(value))
	}

	return kinds
}
