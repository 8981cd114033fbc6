package templates

import "embed"

// TemplatesFS holds the CI configuration templates, one directory per CI
// system and one file per language. Files starting with "_" hold shared
// blocks.
//
//go:embed jenkins/*.tmpl gitlab/*.tmpl
var TemplatesFS embed.FS
