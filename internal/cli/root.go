package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/selfdeploy/self-deploy/internal/config"
	"github.com/selfdeploy/self-deploy/internal/engine"
	"github.com/selfdeploy/self-deploy/internal/repo"
	"github.com/selfdeploy/self-deploy/pkg/schema"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	rootCmd = &cobra.Command{
		Use:   "self-deploy",
		Short: "self-deploy - generate CI/CD pipelines from your repository",
		Long: `self-deploy inspects a repository, detects its language, framework,
version and build tool, and generates a ready-to-use Jenkinsfile or
.gitlab-ci.yml for it.

Supported languages: Java, Go, JavaScript/TypeScript, Python

  Examples:
  self-deploy detect                                   # print the detected language
  self-deploy analyze --format json                    # full technology profile
  self-deploy generate --system gitlab                 # write ./output/.gitlab-ci.yml
  self-deploy generate --repo git@github.com:user/go-service.git --system both
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), verbose)
		},
	}

	verbose bool
	logger  = newLogger(io.Discard, false)

	isInteractiveTTY = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
	globalConfigPath = config.DefaultGlobalPath
	newAcquirer      = func() *repo.Acquirer { return repo.NewAcquirer(logger) }
	validateRepoURL  = repo.ValidateURL
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root cobra command. Cancelling ctx aborts a clone in progress.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newLogger returns a text logger on w at Warn level, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// helper for internal debug prints
func debugf(format string, a ...any) {
	logger.Debug(fmt.Sprintf(format, a...))
}

// pathArg returns the directory named by the optional positional argument.
func pathArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}

// analyzeProject analyzes the local directory named by args, or a clone of
// repoURL when set, and hands the profile to fn. A clone is removed once fn
// returns.
func analyzeProject(ctx context.Context, args []string, repoURL string, fn func(*schema.Profile) error) error {
	eng := engine.New(logger)

	if repoURL == "" {
		dir := pathArg(args)
		debugf("analyzing local directory %s", dir)
		p, err := eng.AnalyzeLocal(dir)
		if err != nil {
			return err
		}
		return fn(p)
	}

	if err := validateRepoURL(repoURL); err != nil {
		return err
	}
	debugf("cloning %s", repoURL)
	return newAcquirer().WithRepository(ctx, repoURL, func(dir string) error {
		p, err := eng.Analyze(dir)
		if err != nil {
			return err
		}
		p.RepoName = repo.NameFromURL(repoURL)
		p.RepoURL = repoURL
		return fn(p)
	})
}

// splitList splits a comma separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
