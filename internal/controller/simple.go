package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/weevil/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd    *cobra.Command
	styles styles
}

// NewSimpleUI creates a new SimpleUI without colours.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, styles: newStyles(false)}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

type fileStat struct {
	path  string
	kinds map[m.MutatorKind]int
	count int
}

// DisplayEstimation prints the mutants per file and kind, or the error.
func (s *SimpleUI) DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	statsList := buildFileStats(mutants)
	tableStr := renderEstimationTable(statsList, len(mutants))
	s.printf("\n%s", tableStr)

	return nil
}

func buildFileStats(mutants []m.Mutant) []fileStat {
	info := make(map[m.Path]fileStat)

	for _, mutant := range mutants {
		stat := info[mutant.Source]
		if stat.kinds == nil {
			stat.kinds = make(map[m.MutatorKind]int)
		}

		stat.path = string(mutant.Source)
		stat.kinds[mutant.Kind]++
		stat.count++
		info[mutant.Source] = stat
	}

	statsList := make([]fileStat, 0, len(info))
	for _, stat := range info {
		statsList = append(statsList, stat)
	}

	sort.Slice(statsList, func(i, j int) bool {
		return statsList[i].path < statsList[j].path
	})

	return statsList
}

func renderEstimationTable(statsList []fileStat, totalMutants int) string {
	var tableBuffer bytes.Buffer

	header := []string{"Path"}
	for _, kind := range m.AllMutatorKinds {
		header = append(header, string(kind))
	}

	header = append(header, "Mutants")

	alignment := make([]int, len(header))
	for i := range alignment {
		alignment[i] = tablewriter.ALIGN_CENTER
	}

	alignment[0] = tablewriter.ALIGN_LEFT

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment(alignment)

	totals := make(map[m.MutatorKind]int)

	for _, stat := range statsList {
		row := []string{stat.path}
		for _, kind := range m.AllMutatorKinds {
			row = append(row, fmt.Sprintf("%d", stat.kinds[kind]))
			totals[kind] += stat.kinds[kind]
		}

		table.Append(append(row, fmt.Sprintf("%d", stat.count)))
	}

	footer := []string{fmt.Sprintf("Total Files %d", len(statsList))}
	for _, kind := range m.AllMutatorKinds {
		footer = append(footer, fmt.Sprintf("%d", totals[kind]))
	}

	table.SetFooter(append(footer, fmt.Sprintf("%d", totalMutants)))
	table.Render()

	return tableBuffer.String()
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shard string, count int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if shard == "" {
		s.printf("Running %d mutants with %d worker(s)\n", count, threads)
		return
	}

	s.printf("Running %d mutants with %d worker(s) (Shard %s)\n", count, threads, shard)
}

// DisplayUpcomingTestsInfo shows the number of mutants left to execute.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, count int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Upcoming mutants: %d\n", count)
}

// DisplayStartingTestInfo shows info about the mutant starting.
func (s *SimpleUI) DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, worker int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s mutant %s (%s) %s:%s\n", s.styles.dim(fmt.Sprintf("[%d] Starting", worker)), mutant.ID, mutant.Kind, mutant.Source, mutant.Span.Start)
}

// DisplayCompletedTestInfo shows the verdict of a mutant. Undetected mutants
// also print their diff.
func (s *SimpleUI) DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, result m.MutantResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Completed mutant %s (%s) -> %s\n", mutant.ID, mutant.Kind, s.styles.status(result.Status))

	if result.Status != m.Survived && result.Status != m.NoCoverage {
		return
	}

	if mutant.DiffCode != "" {
		s.printf("File: %s\n%s\n", mutant.Source, strings.TrimRight(mutant.DiffCode, "\n"))
	}
}

// DisplaySummary prints the count of mutants per status.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n%s", renderSummaryTable(summary, s.styles))
}

func renderSummaryTable(summary m.Summary, st styles) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Status", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, status := range m.AllStatuses {
		if summary[status] == 0 {
			continue
		}

		table.Append([]string{st.status(status), fmt.Sprintf("%d", summary[status])})
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", summary.Total())})
	table.Render()

	return tableBuffer.String()
}

// DisplayMutationScore prints the final mutation score in percent.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score float64) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Mutation score: %s\n", s.styles.bold(fmt.Sprintf("%.2f%%", score)))
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
