package target

import (
	"os"
	"strings"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

// Variables are the values available to CI templates.
type Variables struct {
	ProjectName     string
	Language        string
	Framework       string
	Version         string
	BuildTool       string
	Dependencies    []string
	DockerRegistry  string
	SonarProjectKey string
	NexusURL        string
	SonarURL        string
	K8sNamespace    string
	CIRegistry      string
}

// Defaults for values a profile or the environment may leave empty.
const (
	DefaultProjectName    = "app"
	DefaultFramework      = "unknown"
	DefaultVersion        = "1.0.0"
	DefaultBuildTool      = "default"
	DefaultDockerRegistry = "registry.example.com"
	DefaultNexusURL       = "http://nexus:8081"
	DefaultSonarURL       = "http://sonarqube:9000"
	DefaultK8sNamespace   = "default"
	DefaultCIRegistry     = "registry.gitlab.com"
)

// infraVariables maps config variable keys to their environment variable
// and default.
var infraVariables = []struct {
	key, env, def string
	field         func(*Variables) *string
}{
	{"docker_registry", "DOCKER_REGISTRY", DefaultDockerRegistry, func(v *Variables) *string { return &v.DockerRegistry }},
	{"nexus_url", "NEXUS_URL", DefaultNexusURL, func(v *Variables) *string { return &v.NexusURL }},
	{"sonar_url", "SONAR_URL", DefaultSonarURL, func(v *Variables) *string { return &v.SonarURL }},
	{"k8s_namespace", "K8S_NAMESPACE", DefaultK8sNamespace, func(v *Variables) *string { return &v.K8sNamespace }},
	{"ci_registry", "CI_REGISTRY", DefaultCIRegistry, func(v *Variables) *string { return &v.CIRegistry }},
}

// NewVariables builds template variables from a profile. Infrastructure
// values resolve as default, then overrides (from config files), then the
// environment as read by getenv; nil getenv means os.Getenv.
func NewVariables(p *schema.Profile, overrides map[string]string, getenv func(string) string) Variables {
	if getenv == nil {
		getenv = os.Getenv
	}

	v := Variables{
		ProjectName:  orDefault(p.RepoName, DefaultProjectName),
		Language:     p.Language,
		Framework:    orDefault(p.Framework, DefaultFramework),
		Version:      orDefault(p.Version, DefaultVersion),
		BuildTool:    orDefault(p.BuildTool, DefaultBuildTool),
		Dependencies: p.Dependencies,
	}
	v.SonarProjectKey = strings.ReplaceAll(v.ProjectName, "/", "_")

	for _, iv := range infraVariables {
		val := iv.def
		if o := overrides[iv.key]; o != "" {
			val = o
		}
		if e := getenv(iv.env); e != "" {
			val = e
		}
		*iv.field(&v) = val
	}
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
