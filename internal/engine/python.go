package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/selfdeploy/self-deploy/pkg/schema"
)

// pythonSpecifierRules match full requirement specifiers ("Django>=4.2").
var pythonSpecifierRules = []depRule{
	{"django", containsFold("django")},
	{"flask", containsFold("flask")},
	{"fastapi", containsFold("fastapi")},
	{"starlette", containsFold("starlette")},
}

// pythonNameRules match bare package names.
var pythonNameRules = []depRule{
	{"django", equalsFold("django")},
	{"flask", equalsFold("flask")},
	{"fastapi", equalsFold("fastapi")},
	{"starlette", equalsFold("starlette")},
}

var (
	setupVersion  = regexp.MustCompile(`version\s*=\s*["']([^"']+)["']`)
	setupRequires = regexp.MustCompile(`(?s)install_requires\s*=\s*\[([^\]]+)\]`)
	quotedString  = regexp.MustCompile(`["']([^"']+)["']`)
)

// NewPythonDetector detects Python projects packaged with pyproject.toml,
// requirements.txt, setup.py or Pipfile.
func NewPythonDetector(scanner *Scanner, logger *slog.Logger) *Detector {
	return newDetector(ecosystem{
		language: schema.LanguagePython,
		matchPatterns: []string{
			"requirements.txt", "pyproject.toml", "setup.py", "Pipfile", "**/*.py",
		},
		manifests: []manifestSource{
			{name: "pyproject.toml", patterns: []string{"pyproject.toml"}, parse: parsePyproject},
			{
				name:     "requirements.txt",
				patterns: []string{"requirements.txt"},
				needs:    needsDependencies,
				parse:    parseRequirements,
			},
			{name: "setup.py", patterns: []string{"setup.py"}, needs: needsVersion, parse: parseSetupPy},
			{
				name:      "Pipfile",
				patterns:  []string{"Pipfile"},
				buildTool: "pipenv",
				needs:     needsBuildTool,
				parse:     parsePipfile,
			},
		},
		defaultBuildTool: "pip",
		sourcePatterns:   []string{"**/*.py"},
		heuristicLimit:   15,
		sourceRules: []sourceRule{
			{
				framework: "django",
				guard:     hasAny("from django.", "import django"),
				confirm:   hasAny("WSGI_APPLICATION", "urlpatterns"),
			},
			{
				framework: "flask",
				guard:     hasAny("from flask import Flask", "import Flask"),
				confirm:   hasAny("Flask(__name__)"),
			},
			{
				framework: "fastapi",
				guard:     hasAny("from fastapi import FastAPI"),
				confirm:   hasAny("FastAPI("),
			},
			{
				framework: "starlette",
				guard:     hasAny("from starlette.applications import Starlette"),
				confirm:   hasAny("Starlette("),
			},
			{framework: "pyramid", guard: hasAny("from pyramid.config import Configurator")},
			{framework: "bottle", guard: hasAll("import bottle", "bottle.run(")},
		},
		markerRules: []markerRule{
			{patterns: []string{"manage.py"}, framework: "django"},
			{
				patterns: []string{"wsgi.py", "asgi.py"},
				inspect: []depRule{
					{"django", contains("django")},
					{"fastapi", contains("fastapi")},
				},
			},
		},
	}, scanner, logger)
}

type pyprojectFile struct {
	Project struct {
		Version      string   `toml:"version"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	BuildSystem map[string]any `toml:"build-system"`
	Tool        struct {
		Poetry struct {
			Version      string         `toml:"version"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// parsePyproject reads [project] (falling back to [tool.poetry]) and infers
// the build tool from [build-system].
func parsePyproject(content string) (manifestResult, error) {
	var res manifestResult

	var doc pyprojectFile
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		return res, err
	}

	res.Version = doc.Project.Version
	res.Dependencies = doc.Project.Dependencies
	if res.Version == "" {
		res.Version = doc.Tool.Poetry.Version
	}
	if len(res.Dependencies) == 0 {
		res.Dependencies = poetryDependencies([]byte(content), doc.Tool.Poetry.Dependencies)
	}
	res.Framework = firstFramework(pythonSpecifierRules, res.Dependencies)

	buildSystem := fmt.Sprint(doc.BuildSystem)
	switch {
	case strings.Contains(buildSystem, "poetry"):
		res.BuildTool = "poetry"
	case strings.Contains(buildSystem, "flit"):
		res.BuildTool = "flit"
	}
	return res, nil
}

// poetryDependencies returns the package names of a Poetry table in the order
// the document declares them, without the interpreter constraint. Names the
// table header walk cannot see (inline or dotted forms) follow, sorted.
func poetryDependencies(doc []byte, table map[string]any) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if _, ok := table[name]; !ok || seen[name] || strings.EqualFold(name, "python") {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, name := range tableKeys(doc, "tool", "poetry", "dependencies") {
		add(name)
	}
	rest := make([]string, 0, len(table))
	for name := range table {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return names
}

// tableKeys lists the keys of the [path] table in declaration order.
func tableKeys(doc []byte, path ...string) []string {
	var p unstable.Parser
	p.Reset(doc)

	var keys []string
	inTable := false
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			inTable = slices.Equal(keyParts(e.Key()), path)
		case unstable.ArrayTable:
			inTable = false
		case unstable.KeyValue:
			if parts := keyParts(e.Key()); inTable && len(parts) > 0 {
				keys = append(keys, parts[0])
			}
		}
	}
	return keys
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// parseRequirements reads package names from a pip requirements list.
// Options (-r, -e, --index-url) and comments are skipped.
func parseRequirements(content string) (manifestResult, error) {
	var res manifestResult
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name := requirementName(line)
		if name == "" {
			continue
		}
		res.Dependencies = append(res.Dependencies, name)
		if res.Framework == "" {
			res.Framework = frameworkFor(pythonNameRules, name)
		}
	}
	return res, nil
}

// requirementName strips version specifiers, extras, markers and comments.
func requirementName(line string) string {
	if i := strings.IndexAny(line, "=<>!~;[ \t#@"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// parseSetupPy extracts version and install_requires with regular
// expressions; setup.py is never executed.
func parseSetupPy(content string) (manifestResult, error) {
	var res manifestResult
	if m := setupVersion.FindStringSubmatch(content); m != nil {
		res.Version = m[1]
	}
	if m := setupRequires.FindStringSubmatch(content); m != nil {
		for _, dep := range quotedString.FindAllStringSubmatch(m[1], -1) {
			res.Dependencies = append(res.Dependencies, dep[1])
		}
		res.Framework = firstFramework(pythonSpecifierRules, res.Dependencies)
	}
	return res, nil
}

// parsePipfile reads the [packages] table with a key = value line scan.
func parsePipfile(content string) (manifestResult, error) {
	var res manifestResult
	inPackages := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[packages]") {
			inPackages = true
			continue
		}
		if strings.HasPrefix(line, "[") && inPackages {
			break
		}
		if !inPackages || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		name := strings.Trim(strings.TrimSpace(strings.SplitN(line, "=", 2)[0]), `"'`)
		if name == "" {
			continue
		}
		res.Dependencies = append(res.Dependencies, name)
		if res.Framework == "" {
			res.Framework = frameworkFor(pythonNameRules, name)
		}
	}
	return res, nil
}
