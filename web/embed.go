// Package web embeds the HTML templates and static assets served by the
// HTTP server.
package web

import "embed"

// TemplatesFS holds the shell page and the HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds stylesheets and scripts.
//
//go:embed static/*
var StaticFS embed.FS
