package target

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/selfdeploy/self-deploy/pkg/schema"
	yaml "gopkg.in/yaml.v3"
)

// gitlabKeywords are top-level keys of .gitlab-ci.yml that are not jobs.
var gitlabKeywords = []string{
	"stages", "variables", "default", "include", "workflow",
	"image", "services", "cache", "before_script", "after_script",
}

// GitLabTarget renders .gitlab-ci.yml files.
type GitLabTarget struct{}

func (GitLabTarget) Name() string           { return "gitlab" }
func (GitLabTarget) OutputFilename() string { return ".gitlab-ci.yml" }

func (t GitLabTarget) Render(p *schema.Profile, vars Variables) (*Config, error) {
	return renderGeneric(t, p, vars)
}

// Validate parses content as YAML and checks it declares a stages list and
// at least one job, each assigned to a stage.
func (GitLabTarget) Validate(content string) error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("gitlab-ci: %w", err)
	}
	if len(doc) == 0 {
		return errors.New("gitlab-ci: empty document")
	}
	if _, ok := doc["stages"].([]any); !ok {
		return errors.New("gitlab-ci: stages must be a list")
	}

	jobs := 0
	for name, body := range doc {
		if strings.HasPrefix(name, ".") || slices.Contains(gitlabKeywords, name) {
			continue
		}
		jobs++
		job, ok := body.(map[string]any)
		if !ok {
			return fmt.Errorf("gitlab-ci: job %q is not a mapping", name)
		}
		if _, ok := job["stage"]; !ok {
			return fmt.Errorf("gitlab-ci: job %q has no stage", name)
		}
	}
	if jobs == 0 {
		return errors.New("gitlab-ci: no jobs defined")
	}
	return nil
}
