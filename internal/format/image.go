package format

// ImageSource describes an image a page wants to render.
type ImageSource struct {
	Src     string
	Width   int
	Quality int
}

// ImageLoader resolves the final URL for an image. Implementations may rewrite
// the URL to route through a resizing service.
type ImageLoader interface {
	Load(ImageSource) string
}

// LoaderFunc adapts a function to ImageLoader.
type LoaderFunc func(ImageSource) string

func (f LoaderFunc) Load(src ImageSource) string { return f(src) }

// PassthroughLoader returns Src unchanged; width and quality are ignored.
type PassthroughLoader struct{}

func (PassthroughLoader) Load(src ImageSource) string { return src.Src }
