package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	m "gooze.dev/pkg/weevil/internal/model"
)

// CompilerAdapter is the compiler front end: it turns rendered units into test
// binaries or reports diagnostics.
type CompilerAdapter interface {
	// Compile writes the units into the request workspace and builds every
	// requested package. Unusable build options yield *model.FatalConfigurationError.
	Compile(ctx context.Context, req m.CompileRequest) (m.CompileResult, error)
}

// binDir holds the test binaries inside the workspace.
const binDir = ".weevil-bin"

var diagnosticLine = regexp.MustCompile(`^(.+?\.go):(\d+)(?::(\d+))?: (.*)$`)

// LocalCompilerAdapter drives the go toolchain found on PATH.
type LocalCompilerAdapter struct {
	goBin string
}

// NewLocalCompilerAdapter constructs a LocalCompilerAdapter using the go binary on PATH.
func NewLocalCompilerAdapter() *LocalCompilerAdapter {
	return &LocalCompilerAdapter{goBin: "go"}
}

// Compile builds a test binary per package holding tests and type-checks the
// remaining packages with go build.
func (a *LocalCompilerAdapter) Compile(ctx context.Context, req m.CompileRequest) (m.CompileResult, error) {
	workspace := string(req.Workspace)
	if workspace == "" {
		return m.CompileResult{}, errors.New("compile request has no workspace")
	}

	flags, err := buildFlags(workspace, req.Options)
	if err != nil {
		return m.CompileResult{}, err
	}

	if err := writeUnits(workspace, req.Units); err != nil {
		return m.CompileResult{}, err
	}

	if err := os.MkdirAll(filepath.Join(workspace, binDir), 0o750); err != nil {
		return m.CompileResult{}, fmt.Errorf("failed to create binary dir: %w", err)
	}

	result := m.CompileResult{
		Artifact: m.Artifact{Workspace: req.Workspace, Binaries: make(map[m.Path]m.Path)},
	}

	var untested []string

	packages := slices.Clone(req.Packages)
	slices.Sort(packages)

	for _, pkg := range slices.Compact(packages) {
		if !hasTestFiles(filepath.Join(workspace, string(pkg))) {
			untested = append(untested, packageArg(pkg))
			continue
		}

		binary := filepath.Join(workspace, binDir, binaryName(pkg))
		args := append([]string{"test", "-c", "-vet=off", "-o", binary}, flags...)
		args = append(args, packageArg(pkg))

		diagnostics, err := a.run(ctx, workspace, args)
		if err != nil {
			return m.CompileResult{}, err
		}

		if len(diagnostics) > 0 {
			result.Diagnostics = append(result.Diagnostics, diagnostics...)
			continue
		}

		if _, err := os.Stat(binary); err == nil {
			result.Artifact.Binaries[pkg] = m.Path(binary)
		}
	}

	if len(untested) > 0 {
		args := append([]string{"build"}, flags...)
		args = append(args, untested...)

		diagnostics, err := a.run(ctx, workspace, args)
		if err != nil {
			return m.CompileResult{}, err
		}

		result.Diagnostics = append(result.Diagnostics, diagnostics...)
	}

	result.Diagnostics = dedupeDiagnostics(result.Diagnostics)

	return result, nil
}

// run executes one go command and returns the diagnostics it printed. The
// returned error is reserved for failures unrelated to the code being built.
func (a *LocalCompilerAdapter) run(ctx context.Context, workspace string, args []string) ([]m.Diagnostic, error) {
	slog.Debug("Running go toolchain", "dir", workspace, "args", args)

	cmd := exec.CommandContext(ctx, a.goBin, args...)
	cmd.Dir = workspace
	cmd.Env = append(os.Environ(), "GOWORK=off")

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if runErr == nil {
		return nil, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		slog.Error("Failed to run go toolchain", "args", args, "error", runErr)
		return nil, fmt.Errorf("failed to run %s: %w", a.goBin, runErr)
	}

	diagnostics := parseDiagnostics(workspace, output.String())
	if len(diagnostics) == 0 {
		message := strings.TrimSpace(output.String())
		if message == "" {
			message = runErr.Error()
		}

		diagnostics = []m.Diagnostic{{Severity: m.SeverityError, Message: message}}
	}

	return diagnostics, nil
}

// buildFlags validates the options and renders them as go flags. Missing files
// are reported before anything is compiled so that they are never mistaken for
// mutant failures.
func buildFlags(workspace string, options m.BuildOptions) ([]string, error) {
	var flags []string

	if len(options.Tags) > 0 {
		flags = append(flags, "-tags="+strings.Join(options.Tags, ","))
	}

	if options.ModFile != "" {
		path, err := optionFile(workspace, options.ModFile, "modfile")
		if err != nil {
			return nil, err
		}

		flags = append(flags, "-modfile="+path)
	}

	if options.PGOProfile != "" {
		path, err := optionFile(workspace, options.PGOProfile, "pgo profile")
		if err != nil {
			return nil, err
		}

		flags = append(flags, "-pgo="+path)
	}

	return flags, nil
}

func optionFile(workspace string, path m.Path, name string) (string, error) {
	resolved := string(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(workspace, resolved)
	}

	if _, err := os.Stat(resolved); err != nil {
		return "", &m.FatalConfigurationError{
			Reason: fmt.Sprintf("build option %s points to %s, which cannot be read: %v", name, path, err),
		}
	}

	return resolved, nil
}

func writeUnits(workspace string, units []m.RenderedUnit) error {
	for _, unit := range units {
		target := filepath.Join(workspace, filepath.FromSlash(string(unit.Path)))

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}

		if err := os.WriteFile(target, unit.Source, 0o600); err != nil {
			slog.Error("Failed to write rendered unit", "path", target, "error", err)
			return fmt.Errorf("failed to write rendered unit: %w", err)
		}
	}

	return nil
}

func hasTestFiles(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*_test.go"))
	return err == nil && len(matches) > 0
}

func packageArg(pkg m.Path) string {
	if pkg == "" || pkg == "." {
		return "."
	}

	return "./" + strings.TrimPrefix(string(pkg), "./")
}

func binaryName(pkg m.Path) string {
	if pkg == "" || pkg == "." {
		return "root.test"
	}

	return strings.ReplaceAll(string(pkg), "/", "_") + ".test"
}

// parseDiagnostics reads "file:line:col: message" lines. Tab-indented lines
// continue the previous message.
func parseDiagnostics(workspace, output string) []m.Diagnostic {
	var diagnostics []m.Diagnostic

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "\t") && len(diagnostics) > 0 {
			last := &diagnostics[len(diagnostics)-1]
			last.Message += "\n" + strings.TrimSpace(line)

			continue
		}

		match := diagnosticLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(match[2])
		column, _ := strconv.Atoi(match[3])

		diagnostics = append(diagnostics, m.Diagnostic{
			Severity: m.SeverityError,
			Message:  match[4],
			File:     normalizeDiagnosticPath(workspace, match[1]),
			Pos:      m.Position{Line: lineNo, Column: column},
		})
	}

	return diagnostics
}

func normalizeDiagnosticPath(workspace, path string) m.Path {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(workspace, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}

	return m.Path(strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./"))
}

func dedupeDiagnostics(diagnostics []m.Diagnostic) []m.Diagnostic {
	seen := make(map[string]struct{}, len(diagnostics))
	unique := diagnostics[:0]

	for _, diagnostic := range diagnostics {
		key := diagnostic.String()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, diagnostic)
	}

	return unique
}
