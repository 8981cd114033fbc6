package engine

import "strings"

// depRule maps a dependency identifier to a framework.
type depRule struct {
	framework string
	match     func(dep string) bool
}

func contains(sub string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, sub) }
}

func containsFold(sub string) func(string) bool {
	sub = strings.ToLower(sub)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), sub) }
}

func equals(want string) func(string) bool {
	return func(s string) bool { return s == want }
}

func equalsFold(want string) func(string) bool {
	return func(s string) bool { return strings.EqualFold(s, want) }
}

// frameworkFor returns the framework of the first rule matching dep, or "".
func frameworkFor(rules []depRule, dep string) string {
	for _, r := range rules {
		if r.match(dep) {
			return r.framework
		}
	}
	return ""
}

// firstFramework walks deps in order and returns the first framework any
// rule assigns.
func firstFramework(rules []depRule, deps []string) string {
	for _, d := range deps {
		if fw := frameworkFor(rules, d); fw != "" {
			return fw
		}
	}
	return ""
}

// sourceFile is a candidate handed to source rules.
type sourceFile struct {
	Name    string
	Content string
}

type sourcePredicate func(sourceFile) bool

// sourceRule recognizes a framework in a single source file. Once guard
// matches, later rules are not consulted for that file; the framework is
// reported only if confirm (when set) also matches.
type sourceRule struct {
	framework string
	guard     sourcePredicate
	confirm   sourcePredicate
}

func hasAny(subs ...string) sourcePredicate {
	return func(f sourceFile) bool {
		for _, s := range subs {
			if strings.Contains(f.Content, s) {
				return true
			}
		}
		return false
	}
}

func hasAll(subs ...string) sourcePredicate {
	return func(f sourceFile) bool {
		for _, s := range subs {
			if !strings.Contains(f.Content, s) {
				return false
			}
		}
		return true
	}
}

func nameHas(sub string) sourcePredicate {
	return func(f sourceFile) bool { return strings.Contains(f.Name, sub) }
}

func either(preds ...sourcePredicate) sourcePredicate {
	return func(f sourceFile) bool {
		for _, p := range preds {
			if p(f) {
				return true
			}
		}
		return false
	}
}

func both(a, b sourcePredicate) sourcePredicate {
	return func(f sourceFile) bool { return a(f) && b(f) }
}

// classify evaluates rules in order against f and returns the framework
// recognized, or "".
func classify(rules []sourceRule, f sourceFile) string {
	for _, r := range rules {
		if !r.guard(f) {
			continue
		}
		if r.confirm == nil || r.confirm(f) {
			return r.framework
		}
		return ""
	}
	return ""
}

// markerRule recognizes a framework from a conventional file name. When
// inspect is set, the content of up to inspectLimit matching files is checked
// against it instead of trusting presence alone.
type markerRule struct {
	patterns  []string
	framework string
	inspect   []depRule
}

const inspectLimit = 2
