package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/selfdeploy/self-deploy/internal/repo"
	"github.com/selfdeploy/self-deploy/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ginGoMod = `module example.com/billing

go 1.22

require github.com/gin-gonic/gin v1.9.1
`

// resetFlags restores every package-level flag variable, since rootCmd is
// shared between test runs.
func resetFlags() {
	verbose = false
	analyzeRepo, analyzeFormat = "", "yaml"
	generateRepo, generateSystem, generateOutput, generateProfile = "", "", "", ""
	generateForce = false
	initGlobal, initForce = false, false
	configShowSources = false
}

// executeCommand runs rootCmd with args and an isolated global config
// directory, returning stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, env := range []string{"DOCKER_REGISTRY", "NEXUS_URL", "SONAR_URL", "K8S_NAMESPACE", "CI_REGISTRY"} {
		t.Setenv(env, "")
	}

	origTTY := isInteractiveTTY
	isInteractiveTTY = func() bool { return false }

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		isInteractiveTTY = origTTY
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func goProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "billing")
	writeFiles(t, dir, map[string]string{
		"go.mod":  ginGoMod,
		"main.go": "package main\n\nfunc main() {}\n",
	})
	return dir
}

// useLocalRepo makes --repo accept a local path and clone it without depth.
func useLocalRepo(t *testing.T) {
	t.Helper()
	origValidate, origAcquirer := validateRepoURL, newAcquirer
	validateRepoURL = func(string) error { return nil }
	tmp := t.TempDir()
	newAcquirer = func() *repo.Acquirer {
		a := repo.NewAcquirer(logger)
		a.Depth = 0
		a.TempDir = tmp
		return a
	}
	t.Cleanup(func() {
		validateRepoURL, newAcquirer = origValidate, origAcquirer
	})
}

func gitProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "orders-api")
	writeFiles(t, dir, files)

	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	for name := range files {
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"jenkins", "gitlab"}, splitList("jenkins, gitlab,"))
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
}

func TestPathArg(t *testing.T) {
	assert.Equal(t, ".", pathArg(nil))
	assert.Equal(t, ".", pathArg([]string{""}))
	assert.Equal(t, "svc", pathArg([]string{"svc"}))
}

func TestDetectCommand(t *testing.T) {
	dir := goProject(t)
	out, _, err := executeCommand(t, "detect", dir)
	require.NoError(t, err)
	assert.Equal(t, "go\n", out)
}

func TestDetectCommand_NoTechnology(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"README.md": "# hi\n"})

	_, _, err := executeCommand(t, "detect", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no technology detected")
}

func TestAnalyzeCommand_YAML(t *testing.T) {
	dir := goProject(t)
	out, _, err := executeCommand(t, "analyze", dir)
	require.NoError(t, err)

	p, err := schema.ParseProfile([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "go", p.Language)
	assert.Equal(t, "gin", p.Framework)
	assert.Equal(t, "1.22", p.Version)
	assert.Equal(t, "billing", p.RepoName)
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	dir := goProject(t)
	out, _, err := executeCommand(t, "analyze", dir, "--format", "json")
	require.NoError(t, err)

	var p schema.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "go", p.Language)
	assert.Equal(t, []string{"github.com/gin-gonic/gin"}, p.Dependencies)
}

func TestAnalyzeCommand_Text(t *testing.T) {
	dir := goProject(t)
	out, _, err := executeCommand(t, "analyze", dir, "-f", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis summary:")
	assert.Contains(t, out, "Framework:     gin")
}

func TestAnalyzeCommand_UnknownFormat(t *testing.T) {
	_, _, err := executeCommand(t, "analyze", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestAnalyzeCommand_InvalidRepoURL(t *testing.T) {
	_, _, err := executeCommand(t, "analyze", "--repo", "not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrInvalidURL)
}

func TestAnalyzeCommand_Repo(t *testing.T) {
	src := gitProject(t, map[string]string{
		"requirements.txt": "flask==2.3.0\n",
		"app.py":           "from flask import Flask\n",
	})
	useLocalRepo(t)

	out, _, err := executeCommand(t, "analyze", "--repo", src)
	require.NoError(t, err)

	p, err := schema.ParseProfile([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "python", p.Language)
	assert.Equal(t, "flask", p.Framework)
	assert.Equal(t, "orders-api", p.RepoName)
	assert.Equal(t, src, p.RepoURL)
}

func TestVerboseLogsToStderr(t *testing.T) {
	dir := goProject(t)
	_, errOut, err := executeCommand(t, "analyze", dir, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "analyzing repository")
}
