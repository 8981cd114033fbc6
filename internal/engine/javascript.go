package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/selfdeploy/self-deploy/pkg/schema"
)

var npmPackageRules = []depRule{
	{"react", equals("react")},
	{"vue", equals("vue")},
	{"angular", equals("@angular/core")},
	{"express", equals("express")},
	{"koa", equals("koa")},
	{"nextjs", equals("next")},
	{"nuxtjs", equals("nuxt")},
	{"svelte", equals("svelte")},
}

// dependency sections of package.json, merged in this order.
var packageDependencySections = []string{"dependencies", "devDependencies", "peerDependencies"}

// NewJavaScriptDetector detects npm-style JavaScript and TypeScript projects.
func NewJavaScriptDetector(scanner *Scanner, logger *slog.Logger) *Detector {
	sources := []string{"**/*.js", "**/*.jsx", "**/*.ts", "**/*.tsx"}
	return newDetector(ecosystem{
		language:      schema.LanguageJavaScript,
		matchPatterns: append([]string{"package.json"}, sources...),
		manifests: []manifestSource{
			{name: "package.json", patterns: []string{"package.json"}, parse: parsePackageJSON},
			{name: "tsconfig.json", patterns: []string{"tsconfig.json"}},
			{name: "webpack", patterns: []string{"webpack.config.js", "webpack.config.ts"}},
			{name: "vite", patterns: []string{"vite.config.js", "vite.config.ts"}},
		},
		defaultBuildTool: "npm",
		sourcePatterns:   sources,
		heuristicLimit:   15,
		sourceRules: []sourceRule{
			{
				framework: "react",
				guard: both(
					hasAny("import React", "from 'react'", `from "react"`),
					hasAny("<div>", "React.createElement"),
				),
			},
			{framework: "vue", guard: hasAny("import Vue", "from 'vue'", `from "vue"`, "Vue.component")},
			{framework: "angular", guard: hasAny("@Component", "@NgModule", "from '@angular/core'", `from "@angular/core"`)},
			{
				framework: "express",
				guard: hasAny(
					"const express = require('express')", `const express = require("express")`,
					"import express from 'express'", `import express from "express"`,
				),
				confirm: hasAny("express()", "app.get", "app.post"),
			},
			{
				framework: "koa",
				guard: hasAny(
					"const Koa = require('koa')", `const Koa = require("koa")`,
					"import Koa from 'koa'", `import Koa from "koa"`,
				),
				confirm: hasAny("new Koa()"),
			},
			{framework: "nextjs", guard: hasAny("getServerSideProps", "getStaticProps", "next/head")},
			{framework: "nuxtjs", guard: hasAny("asyncData", "nuxt/")},
			{framework: "svelte", guard: either(hasAny("<script context="), nameHas("svelte"))},
		},
		markerRules: []markerRule{
			{patterns: []string{"next.config.js", "next.config.ts"}, framework: "nextjs"},
			{patterns: []string{"nuxt.config.js", "nuxt.config.ts"}, framework: "nuxtjs"},
			{patterns: []string{"svelte.config.js"}, framework: "svelte"},
			{patterns: []string{"angular.json"}, framework: "angular"},
			{patterns: []string{"vue.config.js"}, framework: "vue"},
		},
	}, scanner, logger)
}

// parsePackageJSON reads version, the merged dependency names (first
// occurrence order), the framework and the package manager.
func parsePackageJSON(content string) (manifestResult, error) {
	var res manifestResult

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return res, err
	}

	if raw, ok := pkg["version"]; ok {
		var v string
		if json.Unmarshal(raw, &v) == nil {
			res.Version = v
		}
	}

	seen := make(map[string]bool)
	for _, section := range packageDependencySections {
		raw, ok := pkg[section]
		if !ok || isJSONNull(raw) {
			continue
		}
		keys, err := orderedKeys(raw)
		if err != nil {
			return manifestResult{}, fmt.Errorf("%s: %w", section, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				res.Dependencies = append(res.Dependencies, k)
			}
		}
	}
	res.Framework = firstFramework(npmPackageRules, res.Dependencies)

	var scripts map[string]any
	if raw, ok := pkg["scripts"]; ok {
		_ = json.Unmarshal(raw, &scripts)
	}
	res.BuildTool = packageManager(scripts, seen)
	return res, nil
}

func packageManager(scripts map[string]any, deps map[string]bool) string {
	script := func(name string) string {
		s, _ := scripts[name].(string)
		return s
	}
	start, build := script("start"), script("build")
	switch {
	case strings.Contains(start, "yarn") || strings.Contains(build, "yarn"):
		return "yarn"
	case strings.Contains(start, "pnpm") || strings.Contains(build, "pnpm"):
		return "pnpm"
	case deps["yarn"]:
		return "yarn"
	case deps["pnpm"]:
		return "pnpm"
	}
	return ""
}

// orderedKeys returns the keys of a JSON object in document order.
func orderedKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
