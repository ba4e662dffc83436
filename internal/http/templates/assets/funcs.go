// Package assets provides template helpers for static asset URLs and inlined CSS.
package assets

import (
	"html/template"

	httpassets "github.com/target/webshell/internal/http/assets"
)

// Options configures asset-related template helpers.
type Options struct {
	Resolver    *httpassets.AssetResolver
	CriticalCSS func() string
}

// Funcs returns template helpers for asset resolution and critical CSS embedding.
func Funcs(opts Options) template.FuncMap {
	return template.FuncMap{
		"asset": opts.Resolver.Resolve,
		"criticalCSS": func() template.CSS {
			if opts.CriticalCSS == nil {
				return ""
			}
			// #nosec G203 - read from our own static bundle
			return template.CSS(opts.CriticalCSS())
		},
	}
}
