// Package web embeds the HTML templates and static assets served by the
// application, so the binary ships self-contained.
package web

import "embed"

// TemplatesFS holds the server-rendered HTML templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and browser scripts.
//
//go:embed static/*
var StaticFS embed.FS
