package viewmodel

import "html/template"

// User represents the signed-in user exposed to templates.
type User struct {
	Name  string
	Email string
	Role  string
}

// Auth is the authentication context rendered by the chrome.
type Auth struct {
	SignedIn   bool
	User       *User
	Role       string
	SignInURL  string
	SignOutURL string
	// LocalLogin is false when sign-in happens at a hosted provider.
	LocalLogin bool
}

// Theme is the resolved theme context for a request.
type Theme struct {
	// Preference is what the user chose: light, dark or system.
	Preference string
	// Resolved is light or dark, or "" when the client must decide from prefers-color-scheme.
	Resolved     string
	Attribute    string
	EnableSystem bool
}

// HTMLAttr renders the attribute applied to <html> for the resolved theme.
func (t Theme) HTMLAttr() template.HTMLAttr {
	if t.Resolved == "" || t.Attribute == "" || t.Attribute == "class" {
		return ""
	}
	// #nosec G203 - attribute name comes from configuration and the value is light or dark.
	return template.HTMLAttr(template.HTMLEscapeString(t.Attribute) + `="` + t.Resolved + `"`)
}

// HTMLClass returns the class applied to <html> when the class strategy is used.
func (t Theme) HTMLClass() string {
	if t.Attribute == "class" || t.Attribute == "" {
		return t.Resolved
	}
	return ""
}

// Toast is a transient notification rendered by the toast host.
type Toast struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Toaster configures the toast host.
type Toaster struct {
	Position   string
	DurationMS int64
	ClassName  string
	Toasts     []Toast
}

// Fonts carries the stylesheet link and CSS variables for web fonts.
type Fonts struct {
	Enabled       bool
	StylesheetURL string
	Preconnect    []string
	RootCSS       template.CSS
	BodyClasses   string
}

// Meta is the static <head> metadata.
type Meta struct {
	Title        string
	Description  string
	Keywords     string
	Canonical    string
	Locale       string
	SiteName     string
	OGType       string
	OGTitle      string
	OGDesc       string
	OGURL        string
	TwitterCard  string
	TwitterTitle string
	TwitterDesc  string
}

// NavItem is a navigation link; Active marks the current page.
type NavItem struct {
	Label  string
	Href   string
	Page   string
	Active bool
}

// Layout captures the shared chrome rendered around every page.
type Layout struct {
	Title       string
	PageTitle   string
	CurrentPage string
	CSRFToken   string
	Meta        Meta
	Auth        Auth
	Theme       Theme
	Fonts       Fonts
	Toaster     Toaster
	Nav         []NavItem
	Year        int
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// Page is the data passed to page templates: the layout plus page-specific content.
type Page struct {
	Layout
	Content any
	// Error marks a failed page fetch; ErrorMessage is shown instead of content.
	Error        bool
	ErrorMessage string
}

// LayoutData implements LayoutProvider.
func (p *Page) LayoutData() *Layout { return &p.Layout }
