package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the weevil build version, its VCS revision and the Go version used to build it.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("version: unknown")
				return
			}

			for _, line := range versionLines(info) {
				cmd.Println(line)
			}
		},
	}
}

// versionLines renders the build info; revision lines are omitted for builds
// without VCS stamping.
func versionLines(info *debug.BuildInfo) []string {
	version := info.Main.Version
	if version == "" {
		version = "(devel)"
	}

	lines := []string{"weevil version\t " + version, "go version\t " + info.GoVersion}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			lines = append(lines, "revision\t "+setting.Value)
		case "vcs.modified":
			if setting.Value == "true" {
				lines = append(lines, "modified\t true")
			}
		}
	}

	return lines
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
