package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAndParseProfile(t *testing.T) {
	p := NewProfile(LanguagePython)
	p.Framework = "flask"
	p.BuildTool = "pip"
	p.Dependencies = []string{"flask", "requests"}
	p.ConfigFiles = []string{"/tmp/x/requirements.txt"}
	p.RepoName = "demo"

	out, err := RenderProfile(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), "language: python")
	assert.Contains(t, string(out), "build_tool: pip")

	got, err := ParseProfile(out)
	require.NoError(t, err)
	assert.Equal(t, p.Language, got.Language)
	assert.Equal(t, p.Framework, got.Framework)
	assert.Equal(t, p.Dependencies, got.Dependencies)
	assert.Equal(t, "demo", got.RepoName)
}

func TestParseProfile_Empty(t *testing.T) {
	_, err := ParseProfile([]byte("   \n"))
	require.Error(t, err)
}

func TestParseProfile_MissingLanguage(t *testing.T) {
	_, err := ParseProfile([]byte("framework: gin\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no language")
}

func TestParseProfile_NilSlicesNormalized(t *testing.T) {
	p, err := ParseProfile([]byte("language: go\n"))
	require.NoError(t, err)
	assert.NotNil(t, p.Dependencies)
	assert.NotNil(t, p.ConfigFiles)
	assert.Empty(t, p.Dependencies)
}

func TestNewProfile_StructurallyComplete(t *testing.T) {
	p := NewProfile(LanguageGo)
	assert.Equal(t, "go", p.Language)
	assert.NotNil(t, p.Dependencies)
	assert.NotNil(t, p.ConfigFiles)
	assert.NotNil(t, p.ProjectStructure)
	assert.Contains(t, p.String(), "language=go")
}
