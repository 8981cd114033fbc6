package engine

import (
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

var javaCoordinateRules = []depRule{
	{"spring-boot", contains("spring-boot")},
	{"micronaut", contains("micronaut")},
	{"quarkus", contains("quarkus")},
}

var gradlePluginRules = []depRule{
	{"spring-boot", contains("org.springframework.boot")},
	{"micronaut", contains("io.micronaut")},
	{"quarkus", contains("io.quarkus")},
}

var (
	gradleQuoted  = regexp.MustCompile(`['"]([^'"]+)['"]`)
	gradleVersion = regexp.MustCompile(`^version\s*=?\s*['"]([^'"]+)['"]`)
)

// NewJavaDetector detects Maven and Gradle projects (Java and Kotlin sources).
func NewJavaDetector(scanner *Scanner, logger *slog.Logger) *Detector {
	return newDetector(ecosystem{
		language: schema.LanguageJava,
		matchPatterns: []string{
			"pom.xml", "build.gradle", "build.gradle.kts",
			"src/main/java/**/*.java", "src/main/kotlin/**/*.kt",
		},
		manifests: []manifestSource{
			{name: "pom.xml", patterns: []string{"pom.xml"}, buildTool: "maven", parse: parsePOM},
			{
				name:      "gradle",
				patterns:  []string{"build.gradle", "build.gradle.kts"},
				buildTool: "gradle",
				needs:     needsBuildTool,
				parse:     parseGradle,
			},
		},
		sourcePatterns: []string{"**/*.java", "**/*.kt"},
		heuristicLimit: 10,
		sourceRules: []sourceRule{
			{framework: "spring-boot", guard: hasAny("@SpringBootApplication")},
			{framework: "micronaut", guard: hasAny("@MicronautApplication", "io.micronaut")},
			{framework: "quarkus", guard: hasAny("@QuarkusMain", "io.quarkus")},
			{framework: "spring-mvc", guard: hasAny("@RestController", "@Controller")},
		},
	}, scanner, logger)
}

// parsePOM reads the project version, dependency coordinates and, when the
// dependencies name no framework, the build plugins.
func parsePOM(content string) (manifestResult, error) {
	var res manifestResult

	root, err := parseXMLTree(content)
	if err != nil {
		return res, err
	}

	version := root.child("version")
	if version == nil {
		version = root.find("version")
	}
	if version != nil {
		res.Version = strings.TrimSpace(version.text)
	}

	if deps := root.find("dependencies"); deps != nil {
		for _, dep := range deps.findAll("dependency") {
			coord, ok := coordinate(dep)
			if !ok {
				continue
			}
			res.Dependencies = append(res.Dependencies, coord)
			if res.Framework == "" {
				res.Framework = frameworkFor(javaCoordinateRules, coord)
			}
		}
	}

	if res.Framework == "" {
		for _, plugin := range root.findAll("plugin") {
			coord, ok := coordinate(plugin)
			if !ok {
				continue
			}
			if fw := frameworkFor(javaCoordinateRules, coord); fw != "" {
				res.Framework = fw
				break
			}
		}
	}
	return res, nil
}

func coordinate(n *xmlNode) (string, bool) {
	group, artifact := n.child("groupId"), n.child("artifactId")
	if group == nil || artifact == nil {
		return "", false
	}
	return strings.TrimSpace(group.text) + ":" + strings.TrimSpace(artifact.text), true
}

// parseGradle scans a Groovy or Kotlin build script line by line.
func parseGradle(content string) (manifestResult, error) {
	var res manifestResult
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if res.Framework == "" {
			res.Framework = frameworkFor(gradlePluginRules, line)
		}
		if res.Version == "" {
			if m := gradleVersion.FindStringSubmatch(line); m != nil {
				res.Version = m[1]
			}
		}
		if strings.Contains(line, "implementation") || strings.Contains(line, "compile") {
			if m := gradleQuoted.FindStringSubmatch(line); m != nil {
				res.Dependencies = append(res.Dependencies, m[1])
			}
		}
	}
	return res, nil
}

// xmlNode is a minimal element tree; names are local (namespace stripped).
type xmlNode struct {
	name     string
	text     string
	children []*xmlNode
}

func parseXMLTree(content string) (*xmlNode, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	// content is already decoded text; ignore the declared encoding.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// find returns the first descendant named name, in document order.
func (n *xmlNode) find(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if f := c.find(name); f != nil {
			return f
		}
	}
	return nil
}

func (n *xmlNode) findAll(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
		out = append(out, c.findAll(name)...)
	}
	return out
}
