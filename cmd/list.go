package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/weevil/internal/domain"
)

var listKindsFlag []string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List source files and mutant counts",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Estimate(cmd.Context(), domain.EstimateArgs{
				Paths:   parsePaths(args),
				Exclude: viper.GetStringSlice(excludeConfigKey),
				Kinds:   parseKinds(listKindsFlag),
				Threads: max(viper.GetInt(runParallelConfigKey), 1),
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listKindsFlag, kindsFlagName, "k", nil, "mutator kinds to count (default: all)")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
