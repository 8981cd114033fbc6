package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/selfdeploy/self-deploy/internal/config"
	"github.com/selfdeploy/self-deploy/internal/report"
	"github.com/selfdeploy/self-deploy/internal/target"
	"github.com/selfdeploy/self-deploy/pkg/schema"
	"github.com/spf13/cobra"
)

// DefaultOutputDir is used when neither --output nor a config file names one.
const DefaultOutputDir = "output"

var (
	generateRepo    string
	generateSystem  string
	generateOutput  string
	generateForce   bool
	generateProfile string
)

// promptSystems asks which CI systems to generate for.
var promptSystems = func() ([]string, error) {
	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select CI systems to generate for").
				Description("Use space to toggle, enter to confirm").
				Options(huh.NewOptions(target.Names...)...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	return selected, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate CI/CD configuration for a project",
	Long: `Analyzes a project and writes a CI configuration for each selected
system: Jenkinsfile for jenkins, .gitlab-ci.yml for gitlab ("both" selects
all). Systems and output directory default to selfdeploy.yaml, then to
jenkins and ./output.

Infrastructure values (docker_registry, nexus_url, sonar_url, k8s_namespace,
ci_registry) come from selfdeploy.yaml variables and are overridden by the
DOCKER_REGISTRY, NEXUS_URL, SONAR_URL, K8S_NAMESPACE and CI_REGISTRY
environment variables.

Use --profile to render from a saved 'analyze' result instead of analyzing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir := "."
		if generateRepo == "" {
			configDir = pathArg(args)
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		systems, err := resolveSystems(splitList(generateSystem), cfg.Systems)
		if err != nil {
			return err
		}
		targets, err := target.ResolveTargets(systems)
		if err != nil {
			return err
		}

		outDir := generateOutput
		if outDir == "" {
			outDir = cfg.Output
		}
		if outDir == "" {
			outDir = DefaultOutputDir
		}

		run := func(p *schema.Profile) error {
			return generateAll(cmd, p, targets, cfg.Variables, outDir)
		}
		if generateProfile != "" {
			p, err := loadProfile(generateProfile)
			if err != nil {
				return err
			}
			return run(p)
		}
		return analyzeProject(cmd.Context(), args, generateRepo, run)
	},
}

// loadConfig returns the merged global and project config, or an empty one
// when neither exists.
func loadConfig(projectDir string) (*config.Config, error) {
	cfg, err := config.LoadMerged(projectDir, globalConfigPath())
	if errors.Is(err, config.ErrNotFound) {
		debugf("no config file found, using defaults")
		return &config.Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveSystems picks CI systems: flag, then config, then an interactive
// prompt on a terminal, then jenkins.
func resolveSystems(flag, configured []string) ([]string, error) {
	switch {
	case len(flag) > 0:
		return flag, nil
	case len(configured) > 0:
		return configured, nil
	case isInteractiveTTY():
		selected, err := promptSystems()
		if err != nil {
			return nil, err
		}
		if len(selected) == 0 {
			return nil, errors.New("no CI system selected")
		}
		return selected, nil
	default:
		return []string{"jenkins"}, nil
	}
}

func loadProfile(path string) (*schema.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := schema.ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func generateAll(cmd *cobra.Command, p *schema.Profile, targets []target.Target, overrides map[string]string, outDir string) error {
	out := cmd.OutOrStdout()
	report.Profile(out, p)

	vars := target.NewVariables(p, overrides, nil)
	var first *target.Config
	for _, t := range targets {
		rendered, err := t.Render(p, vars)
		if err != nil {
			return err
		}
		if err := t.Validate(rendered.Content); err != nil {
			logger.Warn("generated configuration failed validation", "system", t.Name(), "error", err)
		}
		path, err := target.Write(rendered, outDir, generateForce)
		if err != nil {
			return err
		}
		report.Generated(out, rendered, path)
		if first == nil {
			first = rendered
		}
	}

	if verbose && first != nil {
		report.Preview(out, first.Content, report.PreviewLines)
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&generateRepo, "repo", "", "git URL of a remote repository to clone and analyze")
	generateCmd.Flags().StringVarP(&generateSystem, "system", "s", "", "CI systems, comma separated (jenkins, gitlab, both)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "directory to write configuration into (default ./output)")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "overwrite existing configuration files")
	generateCmd.Flags().StringVar(&generateProfile, "profile", "", "render from a profile saved by 'analyze' instead of analyzing")
	rootCmd.AddCommand(generateCmd)
}
