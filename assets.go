// Package webshell embeds the frontend templates and static assets for production builds.
// In dev mode they are read from disk instead so edits show up without a rebuild.
package webshell

import "embed"

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
