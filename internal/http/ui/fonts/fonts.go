// Package fonts describes the web fonts loaded by the page shell and builds
// the stylesheet URL and CSS variable declarations for them.
package fonts

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Font is a web font family exposed to the page through a CSS variable.
type Font struct {
	Family   string
	Variable string // CSS custom property, e.g. "--font-inter"
	// Weights lists static weights; empty means the variable axis (100..900).
	Weights []int
	Display string // font-display strategy
	// Fallback is the generic family appended to the variable value.
	Fallback string
}

// Inter is the default sans-serif body font.
func Inter() Font {
	return Font{Family: "Inter", Variable: "--font-inter", Display: "swap", Fallback: "sans-serif"}
}

// Poppins is the display font used for headings.
func Poppins() Font {
	return Font{
		Family:   "Poppins",
		Variable: "--font-poppins",
		Weights:  []int{400, 500, 600, 700},
		Display:  "swap",
		Fallback: "sans-serif",
	}
}

// Defaults returns the fonts loaded by the root layout.
func Defaults() []Font {
	return []Font{Inter(), Poppins()}
}

// familyParam renders the css2 "family" query value, e.g. "Poppins:wght@400;500".
func (f Font) familyParam() string {
	name := strings.ReplaceAll(f.Family, " ", "+")
	if len(f.Weights) == 0 {
		return name + ":wght@100..900"
	}
	ws := append([]int(nil), f.Weights...)
	sort.Ints(ws)
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = strconv.Itoa(w)
	}
	return name + ":wght@" + strings.Join(parts, ";")
}

// StylesheetURL builds a Google Fonts css2 URL that loads every font in fs.
// The display strategy of the first font applies to the whole request.
// An empty base or font list yields "".
func StylesheetURL(base string, fs []Font) string {
	if base == "" || len(fs) == 0 {
		return ""
	}
	// css2 repeats the family key and expects literal ':' '@' ';' so the query is built by hand.
	var b strings.Builder
	b.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	for _, f := range fs {
		b.WriteString(sep)
		b.WriteString("family=")
		b.WriteString(f.familyParam())
		sep = "&"
	}
	display := fs[0].Display
	if display == "" {
		display = "swap"
	}
	b.WriteString("&display=")
	b.WriteString(url.QueryEscape(display))
	return b.String()
}

// RootCSS declares each font's CSS variable on :root.
func RootCSS(fs []Font) string {
	if len(fs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(":root{")
	for _, f := range fs {
		b.WriteString(f.Variable)
		b.WriteString(":'")
		b.WriteString(f.Family)
		b.WriteString("'")
		if f.Fallback != "" {
			b.WriteString(",")
			b.WriteString(f.Fallback)
		}
		b.WriteString(";")
	}
	b.WriteString("}")
	return b.String()
}

// Origins returns the hosts the browser should preconnect to for base.
func Origins(base string) []string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil
	}
	origins := []string{u.Scheme + "://" + u.Host}
	if u.Host == "fonts.googleapis.com" {
		origins = append(origins, "https://fonts.gstatic.com")
	}
	return origins
}
