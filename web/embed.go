// Package web holds the ledger page templates and its static assets.
package web

import "embed"

// TemplatesFS holds the full page and the ledger partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
