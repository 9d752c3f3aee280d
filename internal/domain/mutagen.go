// Package domain contains the core mutation testing workflow and logic.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/weevil/internal/adapter"
	"gooze.dev/pkg/weevil/internal/domain/mutagens"
	m "gooze.dev/pkg/weevil/internal/model"
	"gooze.dev/pkg/weevil/internal/syntax"
)

// DefaultMutations lists the mutator kinds enabled when none are configured.
var DefaultMutations = m.AllMutatorKinds

// Mutagen defines the interface for mutation generation.
type Mutagen interface {
	// GenerateMutation parses one source and returns its unregistered mutants.
	GenerateMutation(ctx context.Context, source m.Source, kinds ...m.MutatorKind) (*syntax.Tree, []m.Mutant, error)
	// GenerateAll generates mutants for every source in parallel and registers
	// them in path order, so ids are stable from run to run. Only trees holding
	// at least one mutant are returned.
	GenerateAll(ctx context.Context, registry Registry, sources []m.Source, opts GenerateOptions) ([]*syntax.Tree, error)
}

// GenerateOptions configures GenerateAll.
type GenerateOptions struct {
	Threads int
	Kinds   []m.MutatorKind
	// Constants maps module-relative files to the spans of their constant
	// expressions, as reported by the type checker. Nodes inside them are
	// never mutated.
	Constants map[m.Path][]m.Span
}

// mutagen handles pure mutation generation logic.
type mutagen struct {
	adapter.GoFileAdapter
	adapter.SourceFSAdapter
}

// NewMutagen creates a new Mutagen instance.
func NewMutagen(goFileAdapter adapter.GoFileAdapter, sourceFSAdapter adapter.SourceFSAdapter) Mutagen {
	return &mutagen{
		GoFileAdapter:   goFileAdapter,
		SourceFSAdapter: sourceFSAdapter,
	}
}

func (mg *mutagen) GenerateMutation(ctx context.Context, source m.Source, kinds ...m.MutatorKind) (*syntax.Tree, []m.Mutant, error) {
	if err := validateSource(source); err != nil {
		return nil, nil, err
	}

	catalog, err := mutagens.NewCatalog(kinds...)
	if err != nil {
		return nil, nil, err
	}

	return mg.generate(ctx, source, catalog, nil)
}

func (mg *mutagen) GenerateAll(ctx context.Context, registry Registry, sources []m.Source, opts GenerateOptions) ([]*syntax.Tree, error) {
	catalog, err := mutagens.NewCatalog(opts.Kinds...)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(sources)
	for _, source := range ordered {
		if err := validateSource(source); err != nil {
			return nil, err
		}
	}

	slices.SortFunc(ordered, func(a, b m.Source) int {
		return strings.Compare(string(a.Origin.ShortPath), string(b.Origin.ShortPath))
	})

	trees := make([]*syntax.Tree, len(ordered))
	mutants := make([][]m.Mutant, len(ordered))

	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Threads > 0 {
		group.SetLimit(opts.Threads)
	}

	for i, source := range ordered {
		group.Go(func() error {
			tree, found, err := mg.generate(groupCtx, source, catalog, opts.Constants[source.Origin.ShortPath])
			if err != nil {
				return err
			}

			trees[i], mutants[i] = tree, found

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var mutated []*syntax.Tree

	for i, tree := range trees {
		if len(mutants[i]) == 0 {
			continue
		}

		for _, mutant := range mutants[i] {
			registry.Register(mutant)
		}

		mutated = append(mutated, tree)
	}

	slog.Debug("Generated mutants", "files", len(ordered), "mutated", len(mutated), "mutants", registry.Len())

	return mutated, nil
}

func validateSource(source m.Source) error {
	if source.Origin == nil || source.Origin.FullPath == "" {
		return fmt.Errorf("missing source origin")
	}

	return nil
}

func (mg *mutagen) generate(ctx context.Context, source m.Source, catalog *mutagens.Catalog, constants []m.Span) (*syntax.Tree, []m.Mutant, error) {
	if mg.SourceFSAdapter == nil || mg.GoFileAdapter == nil {
		return nil, nil, fmt.Errorf("missing adapters")
	}

	content, err := mg.ReadFile(ctx, source.Origin.FullPath)
	if err != nil {
		slog.Error("Failed to read source", "path", source.Origin.FullPath, "error", err)
		return nil, nil, fmt.Errorf("failed to read %s: %w", source.Origin.FullPath, err)
	}

	tree, err := mg.Parse(ctx, source.Origin.ShortPath, content, constants)
	if err != nil {
		return nil, nil, err
	}

	ignore, err := buildIgnoreIndex(tree)
	if err != nil {
		return nil, nil, err
	}

	mutants, err := collectMutants(tree, catalog, source.Package, ignore)
	if err != nil {
		return nil, nil, err
	}

	return tree, mutants, nil
}

func collectMutants(tree *syntax.Tree, catalog *mutagens.Catalog, pkg m.Path, ignore ignoreIndex) ([]m.Mutant, error) {
	var mutants []m.Mutant

	for node := range tree.Nodes() {
		if node.Constant || node.Kind == syntax.KindOther {
			continue
		}

		for candidate := range catalog.Mutate(node) {
			if ignore.ignores(node, candidate.Kind) {
				continue
			}

			if err := mutagens.ValidateReplacement(candidate.Kind, node, candidate.Replacement); err != nil {
				slog.Error("Mutator produced an invalid replacement", "path", tree.Path(), "node", node.Index, "error", err)
				return nil, err
			}

			mutants = append(mutants, newMutant(tree, node, pkg, candidate))
		}
	}

	return mutants, nil
}

func newMutant(tree *syntax.Tree, node syntax.Node, pkg m.Path, candidate m.Candidate) m.Mutant {
	mutated := mutatedText(tree, node, candidate.Replacement)

	return m.Mutant{
		Kind:         candidate.Kind,
		Source:       tree.Path(),
		Package:      pkg,
		NodeIndex:    node.Index,
		Span:         node.Span,
		OriginalOp:   node.Op,
		Replacement:  candidate.Replacement,
		OriginalText: tree.Text(node.Span),
		MutatedText:  mutated,
		DiffCode:     diffCode(tree, node, mutated),
		Status:       m.Pending,
	}
}

// mutatedText is the node's source with the replacement applied.
func mutatedText(tree *syntax.Tree, node syntax.Node, replacement m.Replacement) string {
	original := tree.Text(node.Span)

	if replacement.Text != "" {
		return replacement.Text
	}

	start := node.OpSpan.StartOffset - node.Span.StartOffset
	end := node.OpSpan.EndOffset - node.Span.StartOffset

	if start < 0 || end > len(original) || start > end {
		return original
	}

	op := ""
	if replacement.Op.IsOperator() {
		op = replacement.Op.String()
	}

	return original[:start] + op + original[end:]
}

// diffCode renders a unified diff of the lines touched by the mutant.
func diffCode(tree *syntax.Tree, node syntax.Node, mutated string) string {
	src := tree.Source()

	_, lineStart := tree.Line(node.Span.StartOffset)
	lastLine, lastStart := tree.Line(node.Span.EndOffset)
	lineEnd := lastStart + len(lastLine)

	if lineStart > node.Span.StartOffset || lineEnd < node.Span.EndOffset || lineEnd > len(src) {
		return ""
	}

	before := string(src[lineStart:lineEnd])
	after := string(src[lineStart:node.Span.StartOffset]) + mutated + string(src[node.Span.EndOffset:lineEnd])

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before + "\n"),
		B:        difflib.SplitLines(after + "\n"),
		FromFile: string(tree.Path()),
		ToFile:   string(tree.Path()),
		Context:  0,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	return text
}
