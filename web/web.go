// Package web holds the page templates and static assets compiled into the server binary.
package web

import "embed"

// FS contains templates/*.html and the static/ tree
//
//go:embed templates static
var FS embed.FS
