// Package assets maps logical static asset names to the fingerprinted files
// listed in the frontend build manifest.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	staticPrefix              = "/static/"
	defaultDevReloadInterval  = 50 * time.Millisecond
)

// AssetResolver resolves logical asset names to hashed filenames using manifest.json.
// In dev mode the manifest is re-read (at most once per reload interval) so rebuilt
// assets are picked up without a restart.
type AssetResolver struct {
	fsys         fs.FS
	manifestPath string
	devMode      bool
	interval     time.Duration
	logger       *slog.Logger

	mu         sync.RWMutex
	manifest   map[string]string
	lastReload time.Time
}

// Options configures NewAssetResolver.
type Options struct {
	FS           fs.FS
	ManifestPath string
	DevMode      bool
	Logger       *slog.Logger
}

// NewAssetResolver loads the manifest from opts.FS. A missing manifest is not an error:
// every asset then resolves to its logical name.
func NewAssetResolver(opts Options) (*AssetResolver, error) {
	if opts.FS == nil {
		return nil, errors.New("asset resolver requires a filesystem")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ar := &AssetResolver{
		fsys:         opts.FS,
		manifestPath: opts.ManifestPath,
		devMode:      opts.DevMode,
		interval:     defaultDevReloadInterval,
		logger:       logger,
		manifest:     map[string]string{},
	}
	if err := ar.Reload(); err != nil {
		return nil, err
	}
	return ar, nil
}

// Reload re-reads the manifest.
func (ar *AssetResolver) Reload() error {
	data, err := fs.ReadFile(ar.fsys, ar.manifestPath)
	manifest := map[string]string{}
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read asset manifest %s: %w", ar.manifestPath, err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("parse asset manifest %s: %w", ar.manifestPath, err)
		}
	}

	ar.mu.Lock()
	ar.manifest = manifest
	ar.lastReload = time.Now()
	ar.mu.Unlock()
	return nil
}

// Resolve returns the public URL for logicalName, e.g. "css/styles.css" -> "/static/css/styles.3f2a.css".
// A nil resolver or an unknown name falls back to the logical path.
func (ar *AssetResolver) Resolve(logicalName string) string {
	logicalName = strings.TrimPrefix(logicalName, "/")
	if ar == nil {
		return staticPrefix + logicalName
	}
	if ar.devMode {
		ar.reloadIfStale()
	}

	ar.mu.RLock()
	hashed, ok := ar.manifest[logicalName]
	ar.mu.RUnlock()
	if !ok {
		return staticPrefix + logicalName
	}
	return staticPrefix + hashed
}

func (ar *AssetResolver) reloadIfStale() {
	ar.mu.RLock()
	stale := time.Since(ar.lastReload) >= ar.interval
	ar.mu.RUnlock()
	if !stale {
		return
	}
	if err := ar.Reload(); err != nil {
		ar.logger.Error("failed to reload asset manifest",
			slog.String("manifest", ar.manifestPath),
			slog.Any("error", err),
		)
	}
}

// SetDevReloadInterval overrides the minimum interval between dev-mode reloads.
func (ar *AssetResolver) SetDevReloadInterval(d time.Duration) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.interval = d
}
