// Package secretshare provides embedded assets for production builds.
package secretshare

import "embed"

// Embedded page templates. In dev mode (IsDev=true) templates are read from disk
// so edits show up without a rebuild.
//
//go:embed all:web/templates
var TemplateFS embed.FS
