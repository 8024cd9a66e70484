package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/boqlca/internal/logging"
)

// FileProvider reads the catalog from a YAML or JSON file on every Snapshot
// call. Wrap it in a cache.CachedProvider to avoid re-reading large files.
type FileProvider struct {
	path string
}

// NewFileProvider returns a provider for the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file:" + p.path }

// Snapshot implements Provider.
func (p *FileProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	log := logging.FromContext(ctx)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnavailable, p.path, err)
	}

	snap, err := DecodeFile(p.path, data)
	if err != nil {
		return nil, err
	}
	snap.Source = p.Name()
	snap.FetchedAt = time.Now()

	log.Debug().
		Ctx(ctx).
		Str("component", "catalog").
		Str("operation", "file_snapshot").
		Str("path", p.path).
		Int("entry_count", len(snap.Entries)).
		Msg("catalog file loaded")

	return snap, nil
}

// DecodeFile decodes catalog data whose format is inferred from path's
// extension, then validates it.
func DecodeFile(path string, data []byte) (*Snapshot, error) {
	var snap Snapshot

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parsing catalog YAML %s: %w", path, err)
		}
	case ".json":
		if err := decodeJSONCatalog(data, &snap); err != nil {
			return nil, fmt.Errorf("parsing catalog JSON %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if snap.SchemaVersion == "" {
		snap.SchemaVersion = CurrentSchemaVersion
	}
	return &snap, nil
}

// decodeJSONCatalog accepts either a snapshot object or a bare entry array.
func decodeJSONCatalog(data []byte, snap *Snapshot) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &snap.Entries)
	}
	return json.Unmarshal(data, snap)
}
