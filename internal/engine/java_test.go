package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const springPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>org.springframework.boot</groupId>
    <artifactId>spring-boot-starter-parent</artifactId>
    <version>3.2.0</version>
  </parent>
  <groupId>com.example</groupId>
  <artifactId>orders</artifactId>
  <version>1.4.2</version>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
    </dependency>
    <dependency>
      <groupId>org.postgresql</groupId>
      <artifactId>postgresql</artifactId>
    </dependency>
  </dependencies>
</project>
`

func TestParsePOM(t *testing.T) {
	res, err := parsePOM(springPOM)
	require.NoError(t, err)
	assert.Equal(t, "spring-boot", res.Framework)
	assert.Equal(t, "1.4.2", res.Version, "project version wins over parent version")
	assert.Equal(t, []string{
		"org.springframework.boot:spring-boot-starter-web",
		"org.postgresql:postgresql",
	}, res.Dependencies)
}

func TestParsePOM_PluginFallback(t *testing.T) {
	pom := `<project>
  <version>0.1.0</version>
  <build><plugins><plugin>
    <groupId>io.quarkus.platform</groupId>
    <artifactId>quarkus-maven-plugin</artifactId>
  </plugin></plugins></build>
</project>`

	res, err := parsePOM(pom)
	require.NoError(t, err)
	assert.Equal(t, "quarkus", res.Framework)
	assert.Empty(t, res.Dependencies)
}

func TestParsePOM_DeclaredLatin1(t *testing.T) {
	pom := `<?xml version="1.0" encoding="ISO-8859-1"?><project><version>2.0</version></project>`
	res, err := parsePOM(pom)
	require.NoError(t, err)
	assert.Equal(t, "2.0", res.Version)
}

func TestParsePOM_Malformed(t *testing.T) {
	_, err := parsePOM("<project><dependencies>")
	assert.Error(t, err)
	_, err = parsePOM("")
	assert.Error(t, err)
}

func TestParseGradle(t *testing.T) {
	script := `plugins {
    id 'org.springframework.boot' version '3.2.0'
    id 'io.micronaut.application' version '4.0.0'
}

version = '0.3.0'

dependencies {
    implementation 'org.springframework.boot:spring-boot-starter-web'
    implementation "com.google.guava:guava:32.1.2-jre"
    testImplementation 'org.junit.jupiter:junit-jupiter'
}
`
	res, err := parseGradle(script)
	require.NoError(t, err)
	assert.Equal(t, "spring-boot", res.Framework, "first plugin line wins")
	assert.Equal(t, "0.3.0", res.Version)
	assert.Equal(t, []string{
		"org.springframework.boot:spring-boot-starter-web",
		"com.google.guava:guava:32.1.2-jre",
	}, res.Dependencies, "testImplementation is not a runtime dependency")
}

func TestJavaDetector_Maven(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml": springPOM,
		"src/main/java/com/example/App.java": "@SpringBootApplication\npublic class App {}\n",
	})

	d := NewJavaDetector(nil, nil)
	require.True(t, d.Matches(root))

	p := d.Analyze(root)
	assert.Equal(t, "java", p.Language)
	assert.Equal(t, "spring-boot", p.Framework)
	assert.Equal(t, "1.4.2", p.Version)
	assert.Equal(t, "maven", p.BuildTool)
	assert.Equal(t, []string{filepath.Join(root, "pom.xml")}, p.ConfigFiles)
}

func TestJavaDetector_MavenWinsBuildToolOverGradle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":      "<project><version>1.0</version></project>",
		"build.gradle": "version = '9.9'\n",
	})

	p := NewJavaDetector(nil, nil).Analyze(root)
	assert.Equal(t, "maven", p.BuildTool)
	assert.Equal(t, "1.0", p.Version)
	assert.Equal(t, []string{filepath.Join(root, "pom.xml")}, p.ConfigFiles)
}

func TestJavaDetector_GradleKotlinDSL(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"build.gradle.kts": "plugins {\n    id(\"io.micronaut.application\") version \"4.2.0\"\n}\nversion = \"0.1\"\n",
	})

	p := NewJavaDetector(nil, nil).Analyze(root)
	assert.Equal(t, "gradle", p.BuildTool)
	assert.Equal(t, "micronaut", p.Framework)
	assert.Equal(t, "0.1", p.Version)
}

func TestJavaDetector_SourceHeuristics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"spring boot", "@SpringBootApplication\nclass App {}", "spring-boot"},
		{"micronaut", "import io.micronaut.runtime.Micronaut;", "micronaut"},
		{"quarkus", "@QuarkusMain\nclass Main {}", "quarkus"},
		{"spring mvc", "@RestController\nclass Api {}", "spring-mvc"},
		{"plain", "class Util {}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, map[string]string{"src/main/java/App.java": tt.source})

			p := NewJavaDetector(nil, nil).Analyze(root)
			assert.Equal(t, tt.want, p.Framework)
			assert.Equal(t, "", p.BuildTool)
		})
	}
}
