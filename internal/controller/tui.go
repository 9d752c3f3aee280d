package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	m "gooze.dev/pkg/weevil/internal/model"
)

const (
	recentResults    = 5
	maxProgressWidth = 60
)

// TUI implements UI using Bubble Tea for interactive display. A test run is
// shown as a live view that stays in the terminal once the run is over.
type TUI struct {
	output io.Writer
	styles styles

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, styles: newStyles(true)}
}

// Start launches the live view in test mode. Estimation needs none.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	if config.mode != ModeTest {
		return nil
	}

	// Input stays with the terminal so Ctrl+C still cancels the run.
	program := tea.NewProgram(newRunModel(p.styles),
		tea.WithOutput(p.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Error("Live view stopped", "error", err)
		}
	}()

	p.mu.Lock()
	p.program, p.done = program, done
	p.mu.Unlock()

	return nil
}

// Close renders the final frame and waits for the live view to exit. It runs
// on cancelled contexts too, the terminal must be released either way.
func (p *TUI) Close(_ context.Context) {
	p.mu.Lock()
	program, done := p.program, p.done
	p.program, p.done = nil, nil
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(finishMsg{})
	<-done
}

// DisplayEstimation prints the mutants per file and kind, or the error.
func (p *TUI) DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		_, _ = fmt.Fprintf(p.output, "%s %v\n", p.styles.status(m.RuntimeError), err)
		return err
	}

	_, writeErr := fmt.Fprintf(p.output, "\n%s", renderEstimationTable(buildFileStats(mutants), len(mutants)))

	return writeErr
}

// DisplayConcurrencyInfo shows concurrency settings.
func (p *TUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shard string, count int) {
	if ctx.Err() == nil {
		p.send(runInfoMsg{threads: threads, shard: shard, count: count})
	}
}

// DisplayUpcomingTestsInfo shows the number of mutants left to execute.
func (p *TUI) DisplayUpcomingTestsInfo(ctx context.Context, count int) {
	if ctx.Err() == nil {
		p.send(upcomingMsg(count))
	}
}

// DisplayStartingTestInfo marks worker as busy with mutant.
func (p *TUI) DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, worker int) {
	if ctx.Err() == nil {
		p.send(startedMsg{mutant: mutant, worker: worker})
	}
}

// DisplayCompletedTestInfo advances the progress bar.
func (p *TUI) DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, result m.MutantResult) {
	if ctx.Err() == nil {
		p.send(completedMsg{mutant: mutant, result: result})
	}
}

// DisplaySummary hands the final counts to the last frame.
func (p *TUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() == nil {
		p.send(summaryMsg(summary))
	}
}

// DisplayMutationScore hands the score to the last frame.
func (p *TUI) DisplayMutationScore(ctx context.Context, score float64) {
	if ctx.Err() == nil {
		p.send(scoreMsg(score))
	}
}

func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

type runInfoMsg struct {
	threads int
	shard   string
	count   int
}

type startedMsg struct {
	mutant m.Mutant
	worker int
}

type completedMsg struct {
	mutant m.Mutant
	result m.MutantResult
}

type upcomingMsg int

type summaryMsg m.Summary

type scoreMsg float64

type finishMsg struct{}

// runModel is the live view of a test run.
type runModel struct {
	styles   styles
	spinner  spinner.Model
	progress progress.Model

	threads int
	shard   string
	total   int
	done    int

	workers map[int]m.Mutant
	counts  m.Summary
	recent  []string

	summary  m.Summary
	score    float64
	scored   bool
	finished bool
}

func newRunModel(st styles) runModel {
	return runModel{
		styles:   st,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxProgressWidth)),
		workers:  make(map[int]m.Mutant),
		counts:   make(m.Summary),
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.progress.Width = min(max(msg.Width-4, 10), maxProgressWidth)
	case spinner.TickMsg:
		if rm.finished {
			return rm, nil
		}

		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	case runInfoMsg:
		rm.threads, rm.shard, rm.total = msg.threads, msg.shard, msg.count
	case upcomingMsg:
		rm.total = rm.done + int(msg)
	case startedMsg:
		rm.workers[msg.worker] = msg.mutant
	case completedMsg:
		return rm.complete(msg)
	case summaryMsg:
		rm.summary = m.Summary(msg)
	case scoreMsg:
		rm.score, rm.scored = float64(msg), true
	case finishMsg:
		rm.finished = true
		return rm, tea.Quit
	}

	return rm, nil
}

// complete records a verdict. Undetected mutants print their diff above the
// live view so it survives the run.
func (rm runModel) complete(msg completedMsg) (tea.Model, tea.Cmd) {
	for worker, mutant := range rm.workers {
		if mutant.ID == msg.mutant.ID {
			delete(rm.workers, worker)
		}
	}

	rm.done++
	rm.counts[msg.result.Status]++

	line := fmt.Sprintf("%s %s (%s) %s:%s", rm.styles.status(msg.result.Status), msg.mutant.ID, msg.mutant.Kind, msg.mutant.Source, msg.mutant.Span.Start)
	rm.recent = append(rm.recent, line)

	if len(rm.recent) > recentResults {
		rm.recent = rm.recent[len(rm.recent)-recentResults:]
	}

	undetected := msg.result.Status == m.Survived || msg.result.Status == m.NoCoverage
	if !undetected || msg.mutant.DiffCode == "" {
		return rm, nil
	}

	return rm, tea.Println(line + "\n" + strings.TrimRight(msg.mutant.DiffCode, "\n"))
}

func (rm runModel) View() string {
	var b strings.Builder

	if rm.finished {
		rm.renderFinal(&b)
		return b.String()
	}

	rm.renderHeader(&b)

	percent := 0.0
	if rm.total > 0 {
		percent = float64(rm.done) / float64(rm.total)
	}

	b.WriteString(rm.progress.ViewAs(percent))
	b.WriteString("\n\n")

	for _, worker := range slices.Sorted(maps.Keys(rm.workers)) {
		mutant := rm.workers[worker]
		fmt.Fprintf(&b, "  %s %s (%s) %s:%s\n", rm.styles.dim(fmt.Sprintf("[%d]", worker)), mutant.ID, mutant.Kind, mutant.Source, mutant.Span.Start)
	}

	if len(rm.recent) > 0 {
		b.WriteString("\n")
	}

	for _, line := range rm.recent {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	return b.String()
}

func (rm runModel) renderHeader(b *strings.Builder) {
	fmt.Fprintf(b, "%s Mutating %d/%d with %d worker(s)", rm.spinner.View(), rm.done, rm.total, rm.threads)

	if rm.shard != "" {
		fmt.Fprintf(b, " (Shard %s)", rm.shard)
	}

	for _, status := range m.AllStatuses {
		if rm.counts[status] > 0 {
			fmt.Fprintf(b, " %s %d", rm.styles.status(status), rm.counts[status])
		}
	}

	b.WriteString("\n\n")
}

func (rm runModel) renderFinal(b *strings.Builder) {
	summary := rm.summary
	if summary == nil {
		summary = rm.counts
	}

	fmt.Fprintf(b, "Mutated %d/%d with %d worker(s)\n", rm.done, rm.total, rm.threads)
	b.WriteString(renderSummaryTable(summary, rm.styles))

	if rm.scored {
		fmt.Fprintf(b, "Mutation score: %s\n", rm.styles.bold(fmt.Sprintf("%.2f%%", rm.score)))
	}
}
