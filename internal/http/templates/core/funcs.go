// Package core provides the general-purpose template helpers shared by every page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/target/webshell/internal/format"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	// ImageLoader resolves image URLs; nil uses format.PassthroughLoader.
	ImageLoader format.ImageLoader
	Now         func() time.Time
}

// Funcs returns the template.FuncMap with helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	loader := deps.ImageLoader
	if loader == nil {
		loader = format.PassthroughLoader{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"cn":           format.Classes,
		"formatNumber": FormatNumber,
		"image": func(src string, width, quality int) string {
			return loader.Load(format.ImageSource{Src: src, Width: width, Quality: quality})
		},
		"year": func() int { return now().Year() },
		"dict": dict,
	}
	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - produced by html/template from the same trusted set; values were escaped during execution.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// FormatNumber renders any integer with thousands separators; other values print as-is.
func FormatNumber(v any) string {
	switch x := v.(type) {
	case int:
		return format.DisplayNumber(x)
	case int8:
		return format.DisplayNumber(x)
	case int16:
		return format.DisplayNumber(x)
	case int32:
		return format.DisplayNumber(x)
	case int64:
		return format.DisplayNumber(x)
	case uint:
		return format.DisplayNumber(x)
	case uint8:
		return format.DisplayNumber(x)
	case uint16:
		return format.DisplayNumber(x)
	case uint32:
		return format.DisplayNumber(x)
	case uint64:
		return format.DisplayNumber(x)
	default:
		return fmt.Sprint(v)
	}
}

// dict builds a map from alternating key/value arguments for passing several values to a partial.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict requires an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
