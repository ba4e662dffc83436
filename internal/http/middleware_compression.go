package httpx

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // gzip level 1-9; 0 uses gzip.DefaultCompression
	MinSize int // responses shorter than this are sent uncompressed; 0 always compresses
	Logger  *slog.Logger
}

//nolint:gochecknoglobals // read-only set of compressible media types
var compressibleTypes = map[string]bool{
	"text/html":                 true,
	"text/css":                  true,
	"text/plain":                true,
	"text/xml":                  true,
	"text/javascript":           true,
	"application/javascript":    true,
	"application/json":          true,
	"application/manifest+json": true,
	"application/xml":           true,
	"image/svg+xml":             true,
}

// Compression returns a middleware that gzips compressible responses for clients that accept it.
// 1xx, 204 and 304 responses, HEAD requests and already-encoded bodies pass through untouched.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	level := cfg.Level
	if level < gzip.HuffmanOnly || level > gzip.BestCompression || level == gzip.NoCompression {
		level = gzip.DefaultCompression
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pool := &sync.Pool{New: func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			return gzip.NewWriter(io.Discard)
		}
		return w
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: cfg.MinSize}
			next.ServeHTTP(gzw, r)
			if err := gzw.finish(); err != nil {
				logger.ErrorContext(r.Context(), "closing gzip writer failed", slog.Any("error", err))
			}
		})
	}
}

// acceptsGzip checks for gzip in Accept-Encoding, honoring an explicit q=0.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), "gzip") {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && !strings.HasPrefix(q, "q=0.0") && q != "q=0."
	}
	return false
}

func isCompressibleContentType(contentType string) bool {
	media, _, _ := strings.Cut(contentType, ";")
	return compressibleTypes[strings.ToLower(strings.TrimSpace(media))]
}

// gzipResponseWriter decides at WriteHeader time whether to compress.
// With a MinSize the first bytes are held back until the threshold is crossed or the handler returns.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	minSize int

	gz            *gzip.Writer
	status        int
	headerWritten bool
	decided       bool
	buf           []byte
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.headerWritten || w.status != 0 {
		return
	}
	w.status = status
	if status < 200 || status == http.StatusNoContent || status == http.StatusNotModified ||
		w.Header().Get("Content-Encoding") != "" {
		w.decide(false)
		return
	}
	if ct := w.Header().Get("Content-Type"); ct != "" && !isCompressibleContentType(ct) {
		w.decide(false)
		return
	}
	if w.minSize <= 0 {
		w.decide(true)
	}
}

// decide commits the headers and, when compressing, attaches a pooled gzip writer.
func (w *gzipResponseWriter) decide(compress bool) {
	if w.decided {
		return
	}
	w.decided = true
	if compress {
		w.gz, _ = w.pool.Get().(*gzip.Writer)
		if w.gz == nil {
			w.gz = gzip.NewWriter(io.Discard)
		}
		w.gz.Reset(w.ResponseWriter)
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.headerWritten = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.decided {
		w.buf = append(w.buf, b...)
		if len(w.buf) < w.minSize {
			return len(b), nil
		}
		w.decide(isCompressibleContentType(w.Header().Get("Content-Type")))
		pending := w.buf
		w.buf = nil
		if _, err := w.body().Write(pending); err != nil {
			return 0, err
		}
		return len(b), nil
	}
	return w.body().Write(b)
}

func (w *gzipResponseWriter) body() io.Writer {
	if w.gz != nil {
		return w.gz
	}
	return w.ResponseWriter
}

// finish flushes anything held back below MinSize uncompressed and returns the writer to the pool.
func (w *gzipResponseWriter) finish() error {
	if !w.decided {
		if w.status == 0 && len(w.buf) == 0 {
			return nil
		}
		w.decide(false)
		if len(w.buf) > 0 {
			if _, err := w.ResponseWriter.Write(w.buf); err != nil {
				return err
			}
			w.buf = nil
		}
	}
	if w.gz == nil {
		return nil
	}
	err := w.gz.Close()
	w.gz.Reset(io.Discard)
	w.pool.Put(w.gz)
	w.gz = nil
	return err
}

// Flush implements http.Flusher for streaming support.
func (w *gzipResponseWriter) Flush() {
	if !w.decided {
		w.decide(isCompressibleContentType(w.Header().Get("Content-Type")))
		if len(w.buf) > 0 {
			_, _ = w.body().Write(w.buf)
			w.buf = nil
		}
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker.
func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker not supported")
}
