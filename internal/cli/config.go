package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/selfdeploy/self-deploy/internal/config"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

// formatPaths returns a human-readable summary of config file locations and their status.
func formatPaths(globalPath, projectDir string) string {
	var b strings.Builder

	globalStatus := "[not found]"
	if _, err := os.Stat(globalPath); err == nil {
		globalStatus = "[found]"
	}
	fmt.Fprintf(&b, "Global config:  %s  %s\n", globalPath, globalStatus)

	localPath := config.FindProjectFile(projectDir)
	localStatus := "[found]"
	switch {
	case localPath == "":
		localPath = filepath.Join(projectDir, config.Filenames[0])
		localStatus = "[not found]"
	case filepath.Base(localPath) != config.Filenames[0]:
		localStatus = "[found, alternate name]"
	}
	fmt.Fprintf(&b, "Local config:   %s  %s\n", localPath, localStatus)

	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		absProject = projectDir
	}
	fmt.Fprintf(&b, "Project dir:    %s\n", absProject)
	return b.String()
}

// renderMergedYAML marshals a config to YAML for display.
func renderMergedYAML(c *config.Config) string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# error marshaling config: %v\n", err)
	}
	return string(data)
}

// annotateConfig renders the merged config with [global]/[local] source
// annotations. Either global or local may be nil.
func annotateConfig(global, local, merged *config.Config) string {
	var b strings.Builder

	if len(merged.Systems) > 0 {
		tag := "# [global]"
		if local != nil && len(local.Systems) > 0 {
			tag = "# [local]"
		}
		fmt.Fprintf(&b, "systems: %s\n", tag)
		for _, s := range merged.Systems {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if merged.Output != "" {
		tag := "# [global]"
		if local != nil && local.Output != "" {
			tag = "# [local]"
		}
		fmt.Fprintf(&b, "output: %s  %s\n", merged.Output, tag)
	}

	if len(merged.Variables) > 0 {
		b.WriteString("variables:\n")
		for _, k := range config.VariableKeys {
			v, ok := merged.Variables[k]
			if !ok {
				continue
			}
			_, inGlobal := lookupVariable(global, k)
			_, inLocal := lookupVariable(local, k)
			fmt.Fprintf(&b, "  %s: %s  %s\n", k, v, sourceTag(inGlobal, inLocal))
		}
	}
	return b.String()
}

func lookupVariable(c *config.Config, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Variables[key]
	return v, ok
}

// sourceTag returns the appropriate annotation based on origin.
func sourceTag(inGlobal, inLocal bool) string {
	switch {
	case inGlobal && inLocal:
		return "# [local, overrides global]"
	case inGlobal:
		return "# [global]"
	case inLocal:
		return "# [local]"
	default:
		return ""
	}
}

var configShowSources bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate your self-deploy configuration",
	Long: `View the effective merged configuration, check file locations,
or validate your setup for problems.

Subcommands:
  show       Print the effective merged config as YAML
  paths      Show resolved config file locations
  validate   Check config for problems`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the effective merged configuration",
	Long: `Loads global and project configs, merges them, and prints the
effective configuration as YAML.

Use --sources to annotate each value with [global], [local], or
[local, overrides global] to show where each value comes from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project := pathArg(args)
		globalPath := globalConfigPath()

		merged, err := config.LoadMerged(project, globalPath)
		if err != nil {
			return err
		}
		if !configShowSources {
			fmt.Fprint(cmd.OutOrStdout(), renderMergedYAML(merged))
			return nil
		}

		var global, local *config.Config
		if g, err := config.Load(globalPath); err == nil {
			global = g
		}
		if l, _, err := config.LoadFromProject(project); err == nil {
			local = l
		}
		fmt.Fprint(cmd.OutOrStdout(), annotateConfig(global, local, merged))
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths [path]",
	Short: "Show resolved config file locations",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), formatPaths(globalConfigPath(), pathArg(args)))
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check configuration for problems",
	Long: `Loads the merged configuration and checks that:
- config files parse correctly
- all systems are known (jenkins, gitlab)
- all variables are known (docker_registry, nexus_url, sonar_url, k8s_namespace, ci_registry)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		project := pathArg(args)
		globalPath := globalConfigPath()

		globalStatus := "ok"
		if _, err := os.Stat(globalPath); err != nil {
			globalStatus = "not found"
		}
		fmt.Fprintf(out, "Loading global config:  %s  %s\n", globalPath, globalStatus)

		localPath := config.FindProjectFile(project)
		localStatus := "ok"
		if localPath == "" {
			localPath = filepath.Join(project, config.Filenames[0])
			localStatus = "not found"
		}
		fmt.Fprintf(out, "Loading local config:   %s  %s\n\n", localPath, localStatus)

		merged, err := config.LoadMerged(project, globalPath)
		if errors.Is(err, config.ErrNotFound) {
			fmt.Fprintln(out, "No config found. Run 'self-deploy init' to create one.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Systems (%d):\n", len(merged.Systems))
		for _, s := range merged.Systems {
			fmt.Fprintf(out, "  %s\n", s)
		}
		fmt.Fprintf(out, "Variables (%d):\n", len(merged.Variables))
		for _, k := range config.VariableKeys {
			if v, ok := merged.Variables[k]; ok {
				fmt.Fprintf(out, "  %s = %s\n", k, v)
			}
		}
		fmt.Fprintln(out)

		if err := merged.Validate(); err != nil {
			problems := strings.Split(err.Error(), "; ")
			for _, p := range problems {
				fmt.Fprintf(out, "  FAIL  %s\n", p)
			}
			return fmt.Errorf("%d problem(s) found", len(problems))
		}
		fmt.Fprintln(out, "All checks passed.")
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSources, "sources", false, "annotate values with their source (global/local)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
