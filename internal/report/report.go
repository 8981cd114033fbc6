package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/selfdeploy/self-deploy/internal/target"
	"github.com/selfdeploy/self-deploy/pkg/schema"
)

// PreviewLines is the default number of lines shown by Preview.
const PreviewLines = 20

// Profile writes the detected technology profile.
func Profile(w io.Writer, p *schema.Profile) {
	fmt.Fprintln(w, "Analysis summary:")
	if p.RepoName != "" {
		fmt.Fprintf(w, "  Repository:    %s\n", p.RepoName)
	}
	fmt.Fprintf(w, "  Language:      %s\n", p.Language)
	fmt.Fprintf(w, "  Framework:     %s\n", orNone(p.Framework))
	fmt.Fprintf(w, "  Version:       %s\n", orNone(p.Version))
	fmt.Fprintf(w, "  Build tool:    %s\n", orNone(p.BuildTool))
	fmt.Fprintf(w, "  Dependencies:  %d\n", len(p.Dependencies))
	fmt.Fprintf(w, "  Config files:  %d\n", len(p.ConfigFiles))
}

// Generated writes where cfg was saved and what it contains.
func Generated(w io.Writer, cfg *target.Config, path string) {
	fmt.Fprintf(w, "\n%s configuration saved to: %s\n", cfg.System, path)
	fmt.Fprintf(w, "  Stages (%d): %s\n", len(cfg.Stages), strings.Join(cfg.Stages, ", "))
	fmt.Fprintf(w, "  Lines:      %d\n", len(strings.Split(cfg.Content, "\n")))
}

// Preview writes the first maxLines lines of content, numbered.
func Preview(w io.Writer, content string, maxLines int) {
	lines := strings.Split(content, "\n")
	shown := min(maxLines, len(lines))

	fmt.Fprintf(w, "\nPreview (first %d lines):\n", shown)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, line := range lines[:shown] {
		fmt.Fprintf(w, "%3d | %s\n", i+1, line)
	}
	if len(lines) > maxLines {
		fmt.Fprintf(w, "... and %d more lines\n", len(lines)-maxLines)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
