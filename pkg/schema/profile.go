package schema

import (
	"bytes"
	"errors"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// Supported language identifiers.
const (
	LanguageJava       = "java"
	LanguageGo         = "go"
	LanguageJavaScript = "javascript"
	LanguagePython     = "python"
)

// Profile is the technology profile detected for a repository.
type Profile struct {
	Language         string              `yaml:"language" json:"language"`
	Framework        string              `yaml:"framework,omitempty" json:"framework,omitempty"`
	Version          string              `yaml:"version,omitempty" json:"version,omitempty"`
	BuildTool        string              `yaml:"build_tool,omitempty" json:"build_tool,omitempty"`
	Dependencies     []string            `yaml:"dependencies" json:"dependencies"`
	ConfigFiles      []string            `yaml:"config_files" json:"config_files"`
	ProjectStructure map[string][]string `yaml:"project_structure,omitempty" json:"project_structure,omitempty"`
	RepoName         string              `yaml:"repo_name,omitempty" json:"repo_name,omitempty"`
	RepoURL          string              `yaml:"repo_url,omitempty" json:"repo_url,omitempty"`
}

// NewProfile returns an empty, structurally complete profile for language.
func NewProfile(language string) *Profile {
	return &Profile{
		Language:         language,
		Dependencies:     []string{},
		ConfigFiles:      []string{},
		ProjectStructure: map[string][]string{},
	}
}

func (p *Profile) String() string {
	return fmt.Sprintf("Profile(language=%s, framework=%s, version=%s, build_tool=%s)",
		p.Language, p.Framework, p.Version, p.BuildTool)
}

// ParseProfile parses a profile previously written by RenderProfile.
func ParseProfile(content []byte) (*Profile, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.New("empty content")
	}
	p := &Profile{}
	if err := yaml.Unmarshal(content, p); err != nil {
		return nil, err
	}
	if p.Language == "" {
		return nil, errors.New("profile has no language")
	}
	if p.Dependencies == nil {
		p.Dependencies = []string{}
	}
	if p.ConfigFiles == nil {
		p.ConfigFiles = []string{}
	}
	return p, nil
}

// RenderProfile renders a profile as YAML.
func RenderProfile(p *Profile) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
