package engine

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

// LanguageDetector decides whether a repository belongs to one ecosystem and
// extracts its technology profile.
type LanguageDetector interface {
	// Language returns the ecosystem identifier (e.g., "python").
	Language() string
	// Matches reports whether root looks like a project of this ecosystem.
	// It checks file existence only and never parses contents.
	Matches(root string) bool
	// Analyze extracts a profile. It never fails: missing or broken
	// manifests only leave fields empty.
	Analyze(root string) *schema.Profile
}

// manifestResult holds the fields one manifest contributed.
type manifestResult struct {
	Framework    string
	Version      string
	BuildTool    string
	Dependencies []string
}

// manifestSource is one configuration file format a detector consults.
type manifestSource struct {
	name     string
	patterns []string
	// buildTool is implied by the file's presence.
	buildTool string
	// needs gates the source on what the profile still lacks; nil means always.
	needs func(p *schema.Profile) bool
	// parse extracts fields from the first matching file; nil means the file
	// is only recorded as a config file.
	parse func(content string) (manifestResult, error)
}

// ecosystem is the data that turns the generic Detector into a language
// specific one.
type ecosystem struct {
	language         string
	matchPatterns    []string
	manifests        []manifestSource
	defaultBuildTool string
	sourcePatterns   []string
	heuristicLimit   int
	sourceRules      []sourceRule
	markerRules      []markerRule
}

// Detector is the data-driven LanguageDetector shared by every ecosystem.
type Detector struct {
	eco     ecosystem
	scanner *Scanner
	logger  *slog.Logger
}

func newDetector(eco ecosystem, scanner *Scanner, logger *slog.Logger) *Detector {
	if scanner == nil {
		scanner = NewScanner()
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Detector{
		eco:     eco,
		scanner: scanner,
		logger:  logger.With("language", eco.language),
	}
}

func (d *Detector) Language() string { return d.eco.language }

func (d *Detector) Matches(root string) bool {
	return d.scanner.Exists(root, d.eco.matchPatterns...)
}

func (d *Detector) Analyze(root string) *schema.Profile {
	p := schema.NewProfile(d.eco.language)

	for _, src := range d.eco.manifests {
		if src.needs != nil && !src.needs(p) {
			continue
		}
		files := d.scanner.FindFiles(root, src.patterns...)
		if len(files) == 0 {
			continue
		}
		p.ConfigFiles = append(p.ConfigFiles, absPaths(files)...)
		if p.BuildTool == "" {
			p.BuildTool = src.buildTool
		}
		if src.parse == nil {
			continue
		}

		res, err := src.parse(d.scanner.ReadText(files[0]))
		if err != nil {
			d.logger.Warn("manifest parse failed", "manifest", src.name, "file", files[0], "error", err)
			continue
		}
		d.logger.Debug("manifest parsed", "manifest", src.name, "file", files[0],
			"framework", res.Framework, "dependencies", len(res.Dependencies))
		fillGaps(p, res)
	}

	if p.Framework == "" {
		p.Framework = d.frameworkFromSource(root)
	}
	if p.BuildTool == "" {
		p.BuildTool = d.eco.defaultBuildTool
	}
	p.ProjectStructure = d.scanner.ProjectStructure(root, DefaultStructureDepth)
	return p
}

// fillGaps copies fields from res that p does not have yet.
func fillGaps(p *schema.Profile, res manifestResult) {
	if p.Framework == "" {
		p.Framework = res.Framework
	}
	if p.Version == "" {
		p.Version = res.Version
	}
	if p.BuildTool == "" {
		p.BuildTool = res.BuildTool
	}
	if len(p.Dependencies) == 0 && len(res.Dependencies) > 0 {
		p.Dependencies = append(p.Dependencies, res.Dependencies...)
	}
}

// frameworkFromSource scans at most heuristicLimit source files, then falls
// back to conventional marker files.
func (d *Detector) frameworkFromSource(root string) string {
	files := d.scanner.FindFiles(root, d.eco.sourcePatterns...)
	if len(files) > d.eco.heuristicLimit {
		files = files[:d.eco.heuristicLimit]
	}
	for _, f := range files {
		sf := sourceFile{Name: filepath.Base(f), Content: d.scanner.ReadText(f)}
		if fw := classify(d.eco.sourceRules, sf); fw != "" {
			d.logger.Debug("framework found in source", "file", f, "framework", fw)
			return fw
		}
	}
	return d.frameworkFromMarkers(root)
}

func (d *Detector) frameworkFromMarkers(root string) string {
	for _, m := range d.eco.markerRules {
		files := d.scanner.FindFiles(root, m.patterns...)
		if len(files) == 0 {
			continue
		}
		if m.inspect == nil {
			return m.framework
		}
		if len(files) > inspectLimit {
			files = files[:inspectLimit]
		}
		for _, f := range files {
			if fw := frameworkFor(m.inspect, d.scanner.ReadText(f)); fw != "" {
				return fw
			}
		}
		return ""
	}
	return ""
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// needsDependencies, needsVersion and needsBuildTool gate manifest sources
// on the field they would supply.
func needsDependencies(p *schema.Profile) bool { return len(p.Dependencies) == 0 }
func needsVersion(p *schema.Profile) bool      { return p.Version == "" }
func needsBuildTool(p *schema.Profile) bool    { return p.BuildTool == "" }
