package engine

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding/charmap"
)

// DefaultStructureDepth bounds ProjectStructure when callers have no preference.
const DefaultStructureDepth = 3

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Scanner finds and reads files under a repository root.
// It never writes and never fails a caller because of a single bad file.
type Scanner struct {
	// ReadFile reads raw file bytes. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	// SkipDirs are directory names never descended into.
	SkipDirs []string
}

// NewScanner returns a Scanner reading from the local filesystem.
func NewScanner() *Scanner {
	return &Scanner{
		ReadFile: os.ReadFile,
		SkipDirs: []string{".git"},
	}
}

// FindFiles returns every regular file under root matching any of patterns.
//
// A pattern matches at any depth ("pom.xml" behaves like "**/pom.xml").
// Results are grouped by pattern, in the order the patterns were given; within
// a group files are ordered shallowest first, then lexically. A file matched
// by more than one pattern is returned once, in the first group that claims it.
func (s *Scanner) FindFiles(root string, patterns ...string) []string {
	globs := anchorPatterns(patterns)
	if len(globs) == 0 {
		return nil
	}

	buckets := make([][]string, len(globs))
	seen := make(map[string]bool)
	s.walk(root, func(path, rel string) bool {
		for i, g := range globs {
			if ok, _ := doublestar.Match(g, rel); ok {
				if !seen[path] {
					seen[path] = true
					buckets[i] = append(buckets[i], path)
				}
				break
			}
		}
		return true
	})

	var out []string
	for _, b := range buckets {
		sort.SliceStable(b, func(i, j int) bool {
			return depth(b[i]) < depth(b[j])
		})
		out = append(out, b...)
	}
	return out
}

// Exists reports whether at least one regular file under root matches any
// pattern. It stops walking at the first match and never reads file contents.
func (s *Scanner) Exists(root string, patterns ...string) bool {
	globs := anchorPatterns(patterns)
	found := false
	s.walk(root, func(_, rel string) bool {
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, rel); ok {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// ReadText returns the textual content of path. Valid UTF-8 is returned as
// is; anything else is decoded as ISO-8859-1. Unreadable files yield "".
func (s *Scanner) ReadText(path string) string {
	read := s.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return ""
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// ProjectStructure maps each directory label (indentation + name) to the
// sorted names of its children, recursing at most maxDepth levels below root.
// Directory children carry a trailing "/".
func (s *Scanner) ProjectStructure(root string, maxDepth int) map[string][]string {
	structure := make(map[string][]string)

	var scan func(dir string, level int, prefix string)
	scan = func(dir string, level int, prefix string) {
		if level > maxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		var items []string
		for _, ent := range entries {
			if ent.IsDir() {
				if s.skipDir(ent.Name()) {
					continue
				}
				items = append(items, ent.Name()+"/")
				if level < maxDepth {
					scan(filepath.Join(dir, ent.Name()), level+1, prefix+"  ")
				}
				continue
			}
			items = append(items, ent.Name())
		}
		if len(items) > 0 {
			sort.Strings(items)
			structure[prefix+filepath.Base(dir)] = items
		}
	}

	scan(root, 0, "")
	return structure
}

// walk visits regular files under root in lexical order. visit returns false
// to stop the walk. Unreadable directories are skipped silently.
func (s *Scanner) walk(root string, visit func(path, rel string) bool) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && s.skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !visit(path, filepath.ToSlash(rel)) {
			return fs.SkipAll
		}
		return nil
	})
}

func (s *Scanner) skipDir(name string) bool {
	for _, d := range s.SkipDirs {
		if d == name {
			return true
		}
	}
	return false
}

// anchorPatterns makes every pattern match at any depth and drops invalid ones.
func anchorPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		if !strings.HasPrefix(p, "**/") {
			p = "**/" + p
		}
		if !doublestar.ValidatePattern(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}
