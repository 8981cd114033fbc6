package target

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/template"

	"github.com/selfdeploy/self-deploy/pkg/schema"
	"github.com/selfdeploy/self-deploy/templates"
)

var (
	// ErrUnknownTarget is returned for CI system names with no generator.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrOutputExists is returned when a write would overwrite a file.
	ErrOutputExists = errors.New("output file already exists")
)

// Stages are the pipeline stages every generated configuration declares.
var Stages = []string{"build", "test", "code_analysis", "docker_build", "publish", "deploy_staging", "deploy_production"}

// Names lists the supported CI systems.
var Names = []string{"jenkins", "gitlab"}

// Config is one rendered CI configuration.
type Config struct {
	System    string
	Template  string
	Filename  string
	Variables Variables
	Stages    []string
	Content   string
}

// Target renders CI configuration for one CI system.
type Target interface {
	// Name returns the CI system identifier (e.g., "jenkins").
	Name() string
	// OutputFilename returns the file the configuration is saved as.
	OutputFilename() string
	// Render produces the configuration for p.
	Render(p *schema.Profile, vars Variables) (*Config, error)
	// Validate checks the structure of rendered content.
	Validate(content string) error
}

// ResolveTargets maps CI system names to Target implementations. "both"
// expands to every system; duplicates are dropped.
func ResolveTargets(names []string) ([]Target, error) {
	var out []Target
	var seen []string
	add := func(t Target) {
		if !slices.Contains(seen, t.Name()) {
			seen = append(seen, t.Name())
			out = append(out, t)
		}
	}
	for _, n := range names {
		switch n {
		case "jenkins":
			add(JenkinsTarget{})
		case "gitlab":
			add(GitLabTarget{})
		case "both":
			add(JenkinsTarget{})
			add(GitLabTarget{})
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, n)
		}
	}
	return out, nil
}

// renderGeneric executes the language template of system.
func renderGeneric(t Target, p *schema.Profile, vars Variables) (*Config, error) {
	name := p.Language + ".tmpl"
	tmpl, err := template.New(name).Option("missingkey=error").ParseFS(templates.TemplatesFS,
		t.Name()+"/_*.tmpl", t.Name()+"/"+name)
	if err != nil {
		return nil, fmt.Errorf("no %s template for language %q: %w", t.Name(), p.Language, err)
	}

	var b bytes.Buffer
	if err := tmpl.ExecuteTemplate(&b, name, vars); err != nil {
		return nil, fmt.Errorf("render %s/%s: %w", t.Name(), name, err)
	}
	return &Config{
		System:    t.Name(),
		Template:  name,
		Filename:  t.OutputFilename(),
		Variables: vars,
		Stages:    slices.Clone(Stages),
		Content:   b.String(),
	}, nil
}

// Write saves cfg under dir, creating parent directories. An existing file
// is only replaced when force is set. Returns the path written.
func Write(cfg *Config, dir string, force bool) (string, error) {
	dest := filepath.Join(dir, cfg.Filename)

	if _, err := os.Stat(dest); err == nil && !force {
		return "", fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, dest)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(dest, []byte(cfg.Content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", cfg.Filename, err)
	}
	return dest, nil
}
