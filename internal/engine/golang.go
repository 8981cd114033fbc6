package engine

import (
	"log/slog"

	"github.com/selfdeploy/self-deploy/pkg/schema"
	"golang.org/x/mod/modfile"
)

var goModuleRules = []depRule{
	{"gin", contains("github.com/gin-gonic/gin")},
	{"echo", contains("github.com/labstack/echo")},
	{"fiber", contains("github.com/gofiber/fiber")},
	{"gorilla-mux", contains("github.com/gorilla/mux")},
}

// NewGoDetector detects Go modules.
func NewGoDetector(scanner *Scanner, logger *slog.Logger) *Detector {
	return newDetector(ecosystem{
		language:      schema.LanguageGo,
		matchPatterns: []string{"go.mod", "go.sum", "**/*.go"},
		manifests: []manifestSource{
			{name: "go.mod", patterns: []string{"go.mod"}, parse: parseGoMod},
			{name: "go.sum", patterns: []string{"go.sum"}},
		},
		defaultBuildTool: "go",
		sourcePatterns:   []string{"**/*.go"},
		heuristicLimit:   10,
		sourceRules: []sourceRule{
			{framework: "gin", guard: hasAll("github.com/gin-gonic/gin", "gin.Default()")},
			{framework: "echo", guard: hasAll("github.com/labstack/echo", "echo.New()")},
			{framework: "fiber", guard: hasAll("github.com/gofiber/fiber", "fiber.New()")},
			{framework: "gorilla-mux", guard: hasAll("github.com/gorilla/mux", "mux.NewRouter()")},
			{framework: "net-http", guard: hasAll("net/http", "http.HandleFunc")},
		},
	}, scanner, logger)
}

// parseGoMod reads the go directive and every required module path.
func parseGoMod(content string) (manifestResult, error) {
	var res manifestResult

	f, err := modfile.ParseLax("go.mod", []byte(content), nil)
	if err != nil {
		return res, err
	}
	if f.Go != nil {
		res.Version = f.Go.Version
	}
	for _, r := range f.Require {
		dep := r.Mod.Path
		res.Dependencies = append(res.Dependencies, dep)
		if res.Framework == "" {
			res.Framework = frameworkFor(goModuleRules, dep)
		}
	}
	return res, nil
}
