package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Filenames lists the project config filenames in priority order.
var Filenames = []string{"selfdeploy.yaml", "selfdeploy.yml"}

// ValidSystems are the supported CI systems.
var ValidSystems = []string{"jenkins", "gitlab"}

// VariableKeys are the template variables a config file may override.
var VariableKeys = []string{"docker_registry", "nexus_url", "sonar_url", "k8s_namespace", "ci_registry"}

// ErrNotFound is returned when neither a global nor a project config exists.
var ErrNotFound = errors.New("no config found")

// Config represents a selfdeploy.yaml file.
type Config struct {
	Systems   []string          `yaml:"systems,omitempty"`
	Output    string            `yaml:"output,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses selfdeploy.yaml content.
func LoadFromBytes(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadFromProject searches projectDir for a config file. Returns the parsed
// config and the path that was loaded.
func LoadFromProject(projectDir string) (*Config, string, error) {
	if p := FindProjectFile(projectDir); p != "" {
		c, err := Load(p)
		if err != nil {
			return nil, "", err
		}
		return c, p, nil
	}
	return nil, "", fmt.Errorf("%w in %s (looked for %v)", ErrNotFound, projectDir, Filenames)
}

// FindProjectFile returns the first existing config file in projectDir, or "".
func FindProjectFile(projectDir string) string {
	for _, name := range Filenames {
		p := filepath.Join(projectDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Save writes the config to path as YAML, prepending header (which should
// already contain '#' prefixed lines).
func Save(c *Config, path, header string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, []byte(header+string(data)), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks systems and variable names.
func (c *Config) Validate() error {
	var problems []string
	for _, s := range c.Systems {
		if !slices.Contains(ValidSystems, s) {
			problems = append(problems, fmt.Sprintf("invalid system %q (valid: %s)", s, strings.Join(ValidSystems, ", ")))
		}
	}
	for k := range c.Variables {
		if !slices.Contains(VariableKeys, k) {
			problems = append(problems, fmt.Sprintf("unknown variable %q", k))
		}
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// LoadMerged loads the global config at globalPath and the project config in
// projectDir, merging them with project values taking priority.
//
// Merge rules:
//   - Systems: project systems replace global (no merge)
//   - Output: project wins when set
//   - Variables: merged by key; project wins
//
// Returns ErrNotFound only if neither file exists.
func LoadMerged(projectDir, globalPath string) (*Config, error) {
	var global, project *Config

	if data, err := os.ReadFile(globalPath); err == nil {
		g, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse global config: %w", err)
		}
		global = g
	}

	p, _, err := LoadFromProject(projectDir)
	switch {
	case err == nil:
		project = p
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if global == nil && project == nil {
		return nil, fmt.Errorf("%w: checked %s and %s", ErrNotFound, globalPath, projectDir)
	}
	if global == nil {
		return project, nil
	}
	if project == nil {
		return global, nil
	}

	merged := &Config{Systems: global.Systems, Output: global.Output}
	if len(project.Systems) > 0 {
		merged.Systems = project.Systems
	}
	if project.Output != "" {
		merged.Output = project.Output
	}
	if len(global.Variables)+len(project.Variables) > 0 {
		merged.Variables = make(map[string]string)
		for k, v := range global.Variables {
			merged.Variables[k] = v
		}
		for k, v := range project.Variables {
			merged.Variables[k] = v
		}
	}
	return merged, nil
}

// DefaultGlobalPath returns $XDG_CONFIG_HOME/self-deploy/selfdeploy.yaml,
// falling back to ~/.config/self-deploy/selfdeploy.yaml.
func DefaultGlobalPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "self-deploy", Filenames[0])
}
