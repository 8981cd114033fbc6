package target

import (
	"fmt"
	"regexp"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

var jenkinsRequired = []struct {
	what    string
	pattern *regexp.Regexp
}{
	{"pipeline block", regexp.MustCompile(`pipeline\s*\{`)},
	{"agent directive", regexp.MustCompile(`agent\s+\w+`)},
	{"stages block", regexp.MustCompile(`stages\s*\{`)},
	{"named stage", regexp.MustCompile(`stage\s*\(['"]\w+['"]\)`)},
}

// JenkinsTarget renders declarative Jenkinsfiles.
type JenkinsTarget struct{}

func (JenkinsTarget) Name() string           { return "jenkins" }
func (JenkinsTarget) OutputFilename() string { return "Jenkinsfile" }

func (t JenkinsTarget) Render(p *schema.Profile, vars Variables) (*Config, error) {
	return renderGeneric(t, p, vars)
}

// Validate checks that content has the skeleton of a declarative pipeline.
func (JenkinsTarget) Validate(content string) error {
	for _, r := range jenkinsRequired {
		if !r.pattern.MatchString(content) {
			return fmt.Errorf("jenkinsfile: missing %s", r.what)
		}
	}
	return nil
}
