package cli

import (
	"fmt"

	"github.com/selfdeploy/self-deploy/internal/engine"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Print the primary language of a project",
	Long: `Checks which ecosystem a project belongs to, using file names only.
Languages are tried in priority order: python, java, go, javascript.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := engine.New(logger).DetectTechnology(pathArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), lang)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
