package domain

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"

	"gooze.dev/pkg/weevil/internal/adapter"
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// ConvergeRequest describes one module group to compile.
type ConvergeRequest struct {
	Workspace m.Path
	Trees     []*syntax.Tree
	Packages  []m.Path
	Options   m.BuildOptions
}

// Orchestrator compiles all injected mutants together and rolls back those
// that break compilation until the build is clean.
type Orchestrator interface {
	Converge(ctx context.Context, registry Registry, req ConvergeRequest) (m.Artifact, error)
}

type orchestrator struct {
	adapter.CompilerAdapter
	Injector
}

// NewOrchestrator constructs an Orchestrator backed by the provided compiler
// adapter and injector.
func NewOrchestrator(compiler adapter.CompilerAdapter, injector Injector) Orchestrator {
	return &orchestrator{
		CompilerAdapter: compiler,
		Injector:        injector,
	}
}

type rollback struct {
	id     m.MutantID
	reason string
}

// compileOutcome is the decision taken after one compile: either an artifact
// or the mutants to roll back, never both.
type compileOutcome struct {
	artifact  *m.Artifact
	rollbacks []rollback
}

// Converge loops render, compile and rollback. The active set only shrinks, so
// the loop ends with a clean build, an empty active set or a fatal error.
// Build options are passed unchanged on every attempt.
func (o *orchestrator) Converge(ctx context.Context, registry Registry, req ConvergeRequest) (m.Artifact, error) {
	active := activeMutants(registry, req.Trees)
	packages := compilePackages(req.Trees, req.Packages)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return m.Artifact{}, err
		}

		units, err := o.render(req.Trees, active)
		if err != nil {
			return m.Artifact{}, err
		}

		slog.Info("Compiling mutated module", "attempt", attempt, "active", len(active), "packages", len(packages))

		result, err := o.Compile(ctx, m.CompileRequest{
			Workspace: req.Workspace,
			Units:     units,
			Packages:  packages,
			Options:   req.Options,
		})
		if err != nil {
			slog.Error("Compilation aborted", "attempt", attempt, "error", err)
			return m.Artifact{}, fmt.Errorf("compile: %w", err)
		}

		outcome, err := decideOutcome(req.Trees, units, active, result)
		if err != nil {
			return m.Artifact{}, err
		}

		if outcome.artifact != nil {
			return *outcome.artifact, nil
		}

		for _, rb := range outcome.rollbacks {
			if err := registry.Transition(rb.id, m.CompileError, rb.reason); err != nil {
				return m.Artifact{}, err
			}

			delete(active, rb.id)
		}

		slog.Info("Rolled back mutants breaking compilation", "attempt", attempt, "count", len(outcome.rollbacks))
	}
}

func activeMutants(registry Registry, trees []*syntax.Tree) map[m.MutantID]m.Mutant {
	files := make(map[m.Path]bool, len(trees))
	for _, tree := range trees {
		files[tree.Path()] = true
	}

	active := make(map[m.MutantID]m.Mutant)

	for _, mutant := range registry.Pending() {
		if files[mutant.Source] {
			active[mutant.ID] = mutant
		}
	}

	return active
}

func compilePackages(trees []*syntax.Tree, extra []m.Path) []m.Path {
	packages := slices.Clone(extra)
	for _, tree := range trees {
		packages = append(packages, packageDir(tree.Path()))
	}

	slices.Sort(packages)

	return slices.Compact(packages)
}

func packageDir(file m.Path) m.Path {
	return m.Path(path.Dir(string(file)))
}

// render produces one unit per tree plus a helper file per package directory.
func (o *orchestrator) render(trees []*syntax.Tree, active map[m.MutantID]m.Mutant) ([]m.RenderedUnit, error) {
	byFile := make(map[m.Path][]m.Mutant)
	for _, mutant := range active {
		byFile[mutant.Source] = append(byFile[mutant.Source], mutant)
	}

	units := make([]m.RenderedUnit, 0, len(trees))
	names := make(map[m.Path]map[string]int)

	for _, tree := range trees {
		unit, err := o.Render(tree, byFile[tree.Path()])
		if err != nil {
			slog.Error("Failed to render tree", "path", tree.Path(), "error", err)
			return nil, fmt.Errorf("render %s: %w", tree.Path(), err)
		}

		units = append(units, unit)

		dir := packageDir(tree.Path())
		if names[dir] == nil {
			names[dir] = make(map[string]int)
		}

		names[dir][tree.Package()]++
	}

	dirs := make([]m.Path, 0, len(names))
	for dir := range names {
		dirs = append(dirs, dir)
	}

	slices.Sort(dirs)

	for _, dir := range dirs {
		units = append(units, o.Helper(dir, dominantName(names[dir])))
	}

	return units, nil
}

func dominantName(counts map[string]int) string {
	best, bestCount := "", -1

	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}

	return best
}

// decideOutcome attributes error diagnostics to active mutants. A diagnostic
// inside guards implicates the innermost guard. One outside guards implicates
// the guards on its line, or the file's active mutants when that line has no
// guard. Diagnostics outside rendered files implicate every active mutant.
// Errors no active mutant can explain are fatal.
func decideOutcome(trees []*syntax.Tree, units []m.RenderedUnit, active map[m.MutantID]m.Mutant, result m.CompileResult) (compileOutcome, error) {
	errs := result.Errors()
	if len(errs) == 0 {
		artifact := result.Artifact
		return compileOutcome{artifact: &artifact}, nil
	}

	if len(active) == 0 {
		return compileOutcome{}, &m.FatalConfigurationError{
			Reason:      "the module does not compile with no mutant active",
			Diagnostics: errs,
		}
	}

	treeFiles := make(map[m.Path]bool, len(trees))
	for _, tree := range trees {
		treeFiles[tree.Path()] = true
	}

	rendered := make(map[m.Path]m.RenderedUnit, len(units))

	for _, unit := range units {
		if treeFiles[unit.Path] {
			rendered[unit.Path] = unit
		}
	}

	implicated := make(map[m.MutantID]string)

	for _, diagnostic := range errs {
		for _, id := range attribute(diagnostic, rendered, active) {
			if _, ok := implicated[id]; !ok {
				implicated[id] = diagnostic.String()
			}
		}
	}

	if len(implicated) == 0 {
		return compileOutcome{}, &m.FatalConfigurationError{
			Reason:      "compilation failed and no active mutant explains the errors",
			Diagnostics: errs,
		}
	}

	rollbacks := make([]rollback, 0, len(implicated))
	for id, reason := range implicated {
		rollbacks = append(rollbacks, rollback{id: id, reason: reason})
	}

	slices.SortFunc(rollbacks, func(a, b rollback) int {
		return cmp.Compare(a.id, b.id)
	})

	return compileOutcome{rollbacks: rollbacks}, nil
}

func attribute(diagnostic m.Diagnostic, rendered map[m.Path]m.RenderedUnit, active map[m.MutantID]m.Mutant) []m.MutantID {
	unit, ok := rendered[diagnostic.File]
	if diagnostic.File == "" || !ok {
		return activeIDs(active, func(m.Mutant) bool { return true })
	}

	if ids := innermostGuard(unit.Guards, diagnostic.Pos); len(ids) > 0 {
		return ids
	}

	if ids := guardsOnLine(unit.Guards, diagnostic.Pos.Line); len(ids) > 0 {
		return ids
	}

	return activeIDs(active, func(mutant m.Mutant) bool { return mutant.Source == unit.Path })
}

// innermostGuard returns the mutants of the smallest guards containing pos.
// Guards sharing the same span form one group.
func innermostGuard(guards []m.Guard, pos m.Position) []m.MutantID {
	var (
		best  *m.Span
		found []m.MutantID
	)

	for i := range guards {
		span := guards[i].Span
		if !span.Contains(pos) {
			continue
		}

		switch {
		case best == nil || span.Size() < best.Size():
			best = &guards[i].Span
			found = slices.Clone(guards[i].Mutants)
		case span == *best:
			found = append(found, guards[i].Mutants...)
		}
	}

	return found
}

// guardsOnLine returns the mutants of every guard spanning line.
func guardsOnLine(guards []m.Guard, line int) []m.MutantID {
	var found []m.MutantID

	for _, guard := range guards {
		if guard.Span.Start.Line <= line && line <= guard.Span.End.Line {
			found = append(found, guard.Mutants...)
		}
	}

	slices.Sort(found)

	return slices.Compact(found)
}

func activeIDs(active map[m.MutantID]m.Mutant, keep func(m.Mutant) bool) []m.MutantID {
	var ids []m.MutantID

	for id, mutant := range active {
		if keep(mutant) {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)

	return ids
}
