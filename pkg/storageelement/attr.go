package storageelement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AttrSchemaVersion is written into every attr.json this code produces.
// "1.0" is accepted on read and auto-migrated in memory.
const AttrSchemaVersion = "2.0"

// MaxAttrSize bounds the encoded attr.json so a single filesystem block
// write is atomic on most local filesystems.
const MaxAttrSize = 4096

// AttrFile is the sidecar JSON document that is the on-disk source of
// truth for a data file's metadata: "<storage_filename>.attr.json" next
// to the data file it describes.
type AttrFile struct {
	SchemaVersion     string         `json:"schema_version"`
	FileID            string         `json:"file_id"`
	OriginalFilename  string         `json:"original_filename"`
	StorageFilename   string         `json:"storage_filename"`
	FileSize          int64          `json:"file_size"`
	ContentType       string         `json:"content_type"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	CreatedByID       string         `json:"created_by_id"`
	CreatedByUsername string         `json:"created_by_username"`
	StoragePath       string         `json:"storage_path"`
	Checksum          string         `json:"checksum"`

	// Compressed marks a file whose stored bytes are gzip output.
	// FileSize and Checksum always describe the stored (compressed)
	// bytes; OriginalSize is the pre-compression byte count.
	Compressed           bool   `json:"compressed,omitempty"`
	CompressionAlgorithm string `json:"compression_algorithm,omitempty"`
	OriginalSize         int64  `json:"original_size,omitempty"`

	Description       string         `json:"description,omitempty"`
	Version           int            `json:"version,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CustomAttributes  map[string]any `json:"custom_attributes,omitempty"`
}

// attrPath returns the sidecar path for a data file path.
func attrPath(dataPath string) string {
	return dataPath + ".attr.json"
}

// MigrateAttr upgrades a legacy ("1.0" or field-less) attr document,
// decoded generically, into the current AttrFile shape. It is idempotent:
// migrating an already-current document round-trips unchanged.
func MigrateAttr(legacy map[string]any) AttrFile {
	a := AttrFile{SchemaVersion: AttrSchemaVersion}

	str := func(key string) string {
		if v, ok := legacy[key].(string); ok {
			return v
		}
		return ""
	}
	num := func(key string) int64 {
		switch v := legacy[key].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
		return 0
	}
	parseTime := func(key string) time.Time {
		if v, ok := legacy[key].(string); ok {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
		}
		return time.Time{}
	}

	a.FileID = str("file_id")
	a.OriginalFilename = str("original_filename")
	a.StorageFilename = str("storage_filename")
	a.FileSize = num("file_size")
	a.ContentType = str("content_type")
	a.CreatedAt = parseTime("created_at")
	a.UpdatedAt = parseTime("updated_at")
	a.CreatedByID = str("created_by_id")
	a.CreatedByUsername = str("created_by_username")
	a.StoragePath = str("storage_path")
	a.Checksum = str("checksum")
	a.Description = str("description")

	if v, ok := legacy["compressed"].(bool); ok {
		a.Compressed = v
	}
	a.CompressionAlgorithm = str("compression_algorithm")
	a.OriginalSize = num("original_size")

	if v, ok := legacy["version"]; ok {
		a.Version = int(num2(v))
	}
	if v, ok := legacy["tags"].([]any); ok {
		for _, t := range v {
			if s, ok := t.(string); ok {
				a.Tags = append(a.Tags, s)
			}
		}
	}
	if v, ok := legacy["metadata"].(map[string]any); ok {
		a.Metadata = v
	}
	if v, ok := legacy["custom_attributes"].(map[string]any); ok {
		a.CustomAttributes = v
	} else {
		a.CustomAttributes = map[string]any{}
	}

	return a
}

func num2(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Encode marshals the attr document and rejects it if it would exceed
// MaxAttrSize.
func (a *AttrFile) Encode() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode attr.json: %w", err)
	}
	if len(data) > MaxAttrSize {
		return nil, ErrAttrTooLarge
	}
	return data, nil
}

// writeAttrFile writes the sidecar via temp-file + fsync + atomic rename,
// mirroring the data file's own write discipline.
func writeAttrFile(dataPath string, a *AttrFile) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}

	finalPath := attrPath(dataPath)
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create attr temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write attr temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync attr temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close attr temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename attr file into place: %w", err)
	}
	return nil
}

// readAttrFile reads and decodes a sidecar, auto-migrating a legacy
// ("1.0" or missing schema_version) document in memory.
func readAttrFile(dataPath string) (*AttrFile, error) {
	raw, err := os.ReadFile(attrPath(dataPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode attr.json: %w", err)
	}

	version, _ := probe["schema_version"].(string)
	if version == AttrSchemaVersion {
		var a AttrFile
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode attr.json: %w", err)
		}
		return &a, nil
	}

	migrated := MigrateAttr(probe)
	return &migrated, nil
}

// ensureDir creates the directory containing path if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
