package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/selfdeploy/self-deploy/internal/config"
	"github.com/selfdeploy/self-deploy/internal/engine"
	"github.com/selfdeploy/self-deploy/internal/target"
	"github.com/spf13/cobra"
)

var (
	initGlobal bool
	initForce  bool
)

// renderBootstrapConfig builds selfdeploy.yaml content with inline comments
// per section. language, when known, is noted in the header.
func renderBootstrapConfig(c *config.Config, language string) string {
	var b strings.Builder

	b.WriteString("# selfdeploy.yaml - self-deploy configuration\n")
	if language != "" {
		fmt.Fprintf(&b, "# Detected language: %s\n", language)
	}
	b.WriteString("# Global (~/.config/self-deploy/selfdeploy.yaml) and project configs are merged; project values take priority.\n")
	b.WriteString("\n")

	fmt.Fprintf(&b, "# CI systems to generate for. Valid: %s\n", strings.Join(config.ValidSystems, ", "))
	if len(c.Systems) > 0 {
		b.WriteString("systems:\n")
		for _, s := range c.Systems {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	} else {
		b.WriteString("# systems:\n#   - jenkins\n")
	}
	b.WriteString("\n")

	b.WriteString("# Directory generated files are written to.\n")
	if c.Output != "" {
		fmt.Fprintf(&b, "output: %s\n", c.Output)
	} else {
		fmt.Fprintf(&b, "# output: %s\n", DefaultOutputDir)
	}
	b.WriteString("\n")

	b.WriteString("# Infrastructure endpoints. Environment variables of the same name in upper case win.\n")
	if len(c.Variables) > 0 {
		b.WriteString("variables:\n")
		for _, k := range config.VariableKeys {
			if v, ok := c.Variables[k]; ok {
				fmt.Fprintf(&b, "  %s: %s\n", k, v)
			}
		}
	} else {
		b.WriteString("# variables:\n")
		fmt.Fprintf(&b, "#   docker_registry: %s\n", target.DefaultDockerRegistry)
		fmt.Fprintf(&b, "#   nexus_url: %s\n", target.DefaultNexusURL)
		fmt.Fprintf(&b, "#   sonar_url: %s\n", target.DefaultSonarURL)
		fmt.Fprintf(&b, "#   k8s_namespace: %s\n", target.DefaultK8sNamespace)
		fmt.Fprintf(&b, "#   ci_registry: %s\n", target.DefaultCIRegistry)
	}
	return b.String()
}

// writeInitConfig writes content to path, creating parent directories. An
// existing file is only replaced when force is set.
func writeInitConfig(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a starter selfdeploy.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if initGlobal {
			path := globalConfigPath()
			if err := writeInitConfig(path, renderBootstrapConfig(&config.Config{}, ""), initForce); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", path)
			return nil
		}

		project := pathArg(args)
		path := filepath.Join(project, config.Filenames[0])
		if existing := config.FindProjectFile(project); existing != "" && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", existing)
		}

		lang, err := engine.New(logger).DetectTechnology(project)
		if err != nil {
			debugf("language detection: %v", err)
			lang = ""
		}

		c := &config.Config{Systems: []string{"jenkins"}, Output: DefaultOutputDir}
		if err := writeInitConfig(path, renderBootstrapConfig(c, lang), true); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", path)
		fmt.Fprintln(out, "\nRun 'self-deploy config validate' to verify your setup.")
		fmt.Fprintln(out, "Run 'self-deploy generate' to write your pipeline!")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "create the global config instead of a project one")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
