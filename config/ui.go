package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// UIConfig groups the page-shell settings rendered by the root layout.
type UIConfig struct {
	Theme    ThemeConfig    `envPrefix:"THEME_"`
	Toaster  ToasterConfig  `envPrefix:"TOASTER_"`
	Fonts    FontsConfig    `envPrefix:"FONTS_"`
	Metadata MetadataConfig `envPrefix:"SITE_"`
}

// Sanitize normalises every UI sub-config.
func (c *UIConfig) Sanitize() {
	c.Theme.Sanitize()
	c.Toaster.Sanitize()
	c.Metadata.Sanitize()
}

// Validate rejects values the layout cannot render.
func (c *UIConfig) Validate() error {
	var errs []error
	if !slices.Contains(ToasterPositions, c.Toaster.Position) {
		errs = append(errs, fmt.Errorf("TOASTER_POSITION %q is not one of %s",
			c.Toaster.Position, strings.Join(ToasterPositions, ", ")))
	}
	if c.Metadata.BaseURL != "" {
		if u, err := url.Parse(c.Metadata.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("SITE_BASE_URL %q must be an absolute URL", c.Metadata.BaseURL))
		}
	}
	if c.Metadata.Title == "" {
		errs = append(errs, errors.New("SITE_TITLE is required"))
	}
	return errors.Join(errs...)
}

// Theme names.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ThemeConfig controls light/dark mode. Attribute is "class" (a class on <html>)
// or a data attribute name such as "data-theme".
type ThemeConfig struct {
	Attribute    string `env:"ATTRIBUTE"     envDefault:"class"`
	DefaultTheme string `env:"DEFAULT"       envDefault:"system"`
	EnableSystem bool   `env:"ENABLE_SYSTEM" envDefault:"true"`
	CookieName   string `env:"COOKIE_NAME"   envDefault:"theme"`
}

// Sanitize restores safe defaults for blank or unknown values.
func (c *ThemeConfig) Sanitize() {
	c.Attribute = strings.TrimSpace(c.Attribute)
	if c.Attribute == "" {
		c.Attribute = "class"
	}
	c.DefaultTheme = strings.ToLower(strings.TrimSpace(c.DefaultTheme))
	switch c.DefaultTheme {
	case ThemeLight, ThemeDark:
	case ThemeSystem:
		if !c.EnableSystem {
			c.DefaultTheme = ThemeLight
		}
	default:
		c.DefaultTheme = ThemeSystem
		if !c.EnableSystem {
			c.DefaultTheme = ThemeLight
		}
	}
	if c.CookieName == "" {
		c.CookieName = "theme"
	}
}

// ToasterPositions lists the accepted toast host positions.
var ToasterPositions = []string{
	"top-left", "top-center", "top-right",
	"bottom-left", "bottom-center", "bottom-right",
}

// ToasterConfig controls the transient notification host.
type ToasterConfig struct {
	Position  string        `env:"POSITION"   envDefault:"bottom-right"`
	Duration  time.Duration `env:"DURATION"   envDefault:"3s"`
	ClassName string        `env:"CLASS_NAME" envDefault:"bg-[var(--card)] text-[var(--foreground)] border-[var(--border)]"`
}

// Sanitize lower-cases the position and clamps the duration.
func (c *ToasterConfig) Sanitize() {
	c.Position = strings.ToLower(strings.TrimSpace(c.Position))
	if c.Duration <= 0 {
		c.Duration = 3 * time.Second
	}
}

// FontsConfig controls web font delivery.
type FontsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	CSSURL  string `env:"CSS_URL" envDefault:"https://fonts.googleapis.com/css2"`
}

// MetadataConfig is the static <head> metadata declared once for every page.
type MetadataConfig struct {
	Title       string   `env:"TITLE"       envDefault:"Web Shell | Professional Starter Template"`
	Description string   `env:"DESCRIPTION" envDefault:"A highly opinionated and production-ready Go web starter with server-rendered pages, Tailwind CSS, hosted authentication, and comprehensive SEO optimization."`
	Keywords    []string `env:"KEYWORDS"    envDefault:"go,template,tailwind css,htmx,seo,web development"`
	BaseURL     string   `env:"BASE_URL"    envDefault:"https://your-domain.com"`
	Locale      string   `env:"LOCALE"      envDefault:"en_US"`
	SiteName    string   `env:"NAME"        envDefault:"Web Shell"`

	OpenGraph OpenGraphConfig `envPrefix:"OG_"`
	Twitter   TwitterConfig   `envPrefix:"TWITTER_"`
}

// OpenGraphConfig holds og:* fields. Blank fields fall back to the page-level values.
type OpenGraphConfig struct {
	Type        string `env:"TYPE"        envDefault:"website"`
	Title       string `env:"TITLE"`
	Description string `env:"DESCRIPTION" envDefault:"Production-ready Go web starter with all the essential tools"`
	URL         string `env:"URL"`
}

// TwitterConfig holds twitter:* card fields.
type TwitterConfig struct {
	Card        string `env:"CARD"        envDefault:"summary_large_image"`
	Title       string `env:"TITLE"       envDefault:"Web Shell"`
	Description string `env:"DESCRIPTION" envDefault:"Production-ready Go web starter with all the essential tools"`
}

// Sanitize fills social fields from the page-level values.
func (c *MetadataConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	kw := c.Keywords[:0]
	for _, k := range c.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	c.Keywords = kw
	if c.OpenGraph.Title == "" {
		c.OpenGraph.Title = c.Title
	}
	if c.OpenGraph.Description == "" {
		c.OpenGraph.Description = c.Description
	}
	if c.OpenGraph.URL == "" {
		c.OpenGraph.URL = c.BaseURL
	}
	if c.Twitter.Title == "" {
		c.Twitter.Title = c.SiteName
	}
	if c.Twitter.Description == "" {
		c.Twitter.Description = c.OpenGraph.Description
	}
}
