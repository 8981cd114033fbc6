package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

// ErrNoTechnology is returned when no detector matches a repository.
var ErrNoTechnology = errors.New("no technology detected")

// Engine runs language detectors in a fixed priority order.
type Engine struct {
	detectors []LanguageDetector
	logger    *slog.Logger
}

// New returns an Engine with the built-in detectors. Python is checked
// before JavaScript so that mixed repositories (a Python service with a JS
// frontend) resolve to Python.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = discardLogger()
	}
	sc := NewScanner()
	return NewWithDetectors(logger,
		NewPythonDetector(sc, logger),
		NewJavaDetector(sc, logger),
		NewGoDetector(sc, logger),
		NewJavaScriptDetector(sc, logger),
	)
}

// NewWithDetectors returns an Engine consulting detectors in the given order.
func NewWithDetectors(logger *slog.Logger, detectors ...LanguageDetector) *Engine {
	if logger == nil {
		logger = discardLogger()
	}
	return &Engine{detectors: detectors, logger: logger}
}

// Languages returns the detector languages in priority order.
func (e *Engine) Languages() []string {
	out := make([]string, 0, len(e.detectors))
	for _, d := range e.detectors {
		out = append(out, d.Language())
	}
	return out
}

// DetectTechnology returns the language of the first matching detector.
func (e *Engine) DetectTechnology(root string) (string, error) {
	d, err := e.match(root)
	if err != nil {
		return "", err
	}
	return d.Language(), nil
}

// Analyze returns the profile produced by the first matching detector.
// RepoName and RepoURL are left for the caller.
func (e *Engine) Analyze(root string) (*schema.Profile, error) {
	d, err := e.match(root)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("analyzing repository", "root", root, "language", d.Language())
	return d.Analyze(root), nil
}

// AnalyzeLocal analyzes a local directory and fills in its identity.
func (e *Engine) AnalyzeLocal(path string) (*schema.Profile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	p, err := e.Analyze(abs)
	if err != nil {
		return nil, err
	}
	p.RepoName = filepath.Base(abs)
	p.RepoURL = "file://" + filepath.ToSlash(abs)
	return p, nil
}

func (e *Engine) match(root string) (LanguageDetector, error) {
	for _, d := range e.detectors {
		if d.Matches(root) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrNoTechnology, root)
}
