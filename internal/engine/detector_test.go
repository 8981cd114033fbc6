package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flaskApp = "from flask import Flask\napp = Flask(__name__)\n"

// recordingScanner returns a scanner that records the base name of every
// file whose contents are read.
func recordingScanner() (*Scanner, *[]string) {
	var read []string
	sc := NewScanner()
	sc.ReadFile = func(name string) ([]byte, error) {
		read = append(read, filepath.Base(name))
		return os.ReadFile(name)
	}
	return sc, &read
}

func TestClassify_GuardEndsEvaluation(t *testing.T) {
	rules := []sourceRule{
		{framework: "express", guard: hasAny("import express"), confirm: hasAny("express()")},
		{framework: "nextjs", guard: hasAny("getStaticProps")},
	}

	assert.Equal(t, "express", classify(rules, sourceFile{Content: "import express\nexpress()"}))
	assert.Equal(t, "", classify(rules, sourceFile{Content: "import express\ngetStaticProps"}))
	assert.Equal(t, "nextjs", classify(rules, sourceFile{Content: "getStaticProps"}))
	assert.Equal(t, "", classify(rules, sourceFile{Content: "nothing here"}))
}

func TestFirstFramework_DependencyOrderWins(t *testing.T) {
	assert.Equal(t, "express", firstFramework(npmPackageRules, []string{"lodash", "express", "react"}))
	assert.Equal(t, "", firstFramework(npmPackageRules, []string{"lodash"}))
}

func TestHeuristic_NeverReadsBeyondBound(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("mod%02d.py", i)] = "print('hi')\n"
	}
	files["mod19.py"] = flaskApp
	writeTree(t, root, files)

	sc, read := recordingScanner()
	p := NewPythonDetector(sc, nil).Analyze(root)

	assert.Equal(t, "", p.Framework, "signature beyond the scan bound must be ignored")
	assert.Len(t, *read, 15)
	assert.NotContains(t, *read, "mod15.py")
	assert.NotContains(t, *read, "mod19.py")
}

func TestHeuristic_StopsAtFirstMatch(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("mod%02d.py", i)] = "print('hi')\n"
	}
	files["mod03.py"] = flaskApp
	files["mod19.py"] = "from fastapi import FastAPI\napp = FastAPI()\n"
	writeTree(t, root, files)

	sc, read := recordingScanner()
	p := NewPythonDetector(sc, nil).Analyze(root)

	assert.Equal(t, "flask", p.Framework)
	assert.Equal(t, []string{"mod00.py", "mod01.py", "mod02.py", "mod03.py"}, *read)
}

func TestHeuristic_GoBoundIsTen(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		files[fmt.Sprintf("f%02d.go", i)] = "package main\n"
	}
	files["f11.go"] = "package main\nimport \"github.com/gin-gonic/gin\"\nfunc main() { gin.Default() }\n"
	writeTree(t, root, files)

	sc, read := recordingScanner()
	p := NewGoDetector(sc, nil).Analyze(root)

	assert.Equal(t, "", p.Framework)
	assert.Len(t, *read, 10)
}

func TestAnalyze_InvalidManifestLogsWarningAndContinues(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pom.xml": "<project><version>1.0"})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := NewJavaDetector(nil, logger).Analyze(root)
	require.NotNil(t, p)
	assert.Equal(t, "java", p.Language)
	assert.Equal(t, "", p.Framework)
	assert.Equal(t, "", p.Version)
	assert.Empty(t, p.Dependencies)
	assert.Equal(t, "maven", p.BuildTool)
	assert.Len(t, p.ConfigFiles, 1)
	assert.Contains(t, buf.String(), "manifest parse failed")
	assert.Contains(t, buf.String(), "pom.xml")
}

func TestAnalyze_StructurallyCompleteWhenNothingFound(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"util.go": "package util\n"})

	p := NewGoDetector(nil, nil).Analyze(root)
	assert.Equal(t, "go", p.Language)
	assert.Equal(t, "", p.Framework)
	assert.Equal(t, "go", p.BuildTool)
	assert.NotNil(t, p.Dependencies)
	assert.NotNil(t, p.ConfigFiles)
	assert.NotEmpty(t, p.ProjectStructure)
}

func TestFillGaps_NeverOverwrites(t *testing.T) {
	p := NewPythonDetector(nil, nil).Analyze(t.TempDir())
	p.Framework = "django"
	p.BuildTool = "poetry"
	fillGaps(p, manifestResult{Framework: "flask", BuildTool: "pip", Version: "1.0", Dependencies: []string{"flask"}})

	assert.Equal(t, "django", p.Framework)
	assert.Equal(t, "poetry", p.BuildTool)
	assert.Equal(t, "1.0", p.Version)
	assert.Equal(t, []string{"flask"}, p.Dependencies)
}
