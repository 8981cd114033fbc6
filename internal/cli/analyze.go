package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/selfdeploy/self-deploy/internal/report"
	"github.com/selfdeploy/self-deploy/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	analyzeRepo   string
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Print the technology profile of a project",
	Long: `Analyzes a local directory (default: current directory) or, with --repo,
a shallow clone of a remote repository, and prints the detected profile.

Formats: yaml (default), json, text`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(analyzeFormat); err != nil {
			return err
		}
		return analyzeProject(cmd.Context(), args, analyzeRepo, func(p *schema.Profile) error {
			return writeProfile(cmd.OutOrStdout(), p, analyzeFormat)
		})
	},
}

func checkFormat(format string) error {
	switch format {
	case "yaml", "json", "text":
		return nil
	}
	return fmt.Errorf("unknown format %q (valid: yaml, json, text)", format)
}

func writeProfile(w io.Writer, p *schema.Profile, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "text":
		report.Profile(w, p)
		return nil
	default:
		data, err := schema.RenderProfile(p)
		if err != nil {
			return fmt.Errorf("render profile: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", "", "git URL of a remote repository to clone and analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "yaml", "output format (yaml, json, text)")
	rootCmd.AddCommand(analyzeCmd)
}
