package storageelement

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// maxSanitizedBaseLen bounds the sanitized original-filename component so
// the overall storage_filename stays well under typical filesystem name
// limits once the uploader, timestamp, and random suffix are appended.
const maxSanitizedBaseLen = 120

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sanitizeFilenameComponent replaces each character of the base name outside
// [A-Za-z0-9._-] with "_" (runs are not collapsed), drops such characters
// from the extension, and truncates while preserving the extension.
func sanitizeFilenameComponent(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	ext = unsafeFilenameChars.ReplaceAllString(ext, "")

	if base == "" {
		base = "file"
	}

	maxBase := maxSanitizedBaseLen - len(ext)
	if maxBase < 1 {
		maxBase = 1
	}
	if len(base) > maxBase {
		base = base[:maxBase]
	}

	return base + ext
}

// randomSuffix returns a short hex string used to disambiguate concurrent
// uploads that land on the same second and uploader.
func randomSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveStorageFilename builds the deterministic recipe
// "{sanitized-base}_{uploader}_{ISO8601-ms}_{short-random}.{ext}".
func DeriveStorageFilename(originalFilename, uploadedBy string, at time.Time) (string, error) {
	sanitizedOriginal := sanitizeFilenameComponent(originalFilename)
	ext := filepath.Ext(sanitizedOriginal)
	base := strings.TrimSuffix(sanitizedOriginal, ext)

	sanitizedUploader := unsafeFilenameChars.ReplaceAllString(uploadedBy, "_")
	if sanitizedUploader == "" {
		sanitizedUploader = "unknown"
	}

	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}

	timestamp := at.UTC().Format("20060102T150405.000Z")
	timestamp = strings.NewReplacer(":", "", "-", "").Replace(timestamp)

	return fmt.Sprintf("%s_%s_%s_%s%s", base, sanitizedUploader, timestamp, suffix, ext), nil
}

// HierarchicalDir returns the "YYYY/MM/DD/HH" directory path for a given
// time, relative to the element's base_path.
func HierarchicalDir(at time.Time) string {
	at = at.UTC()
	return filepath.Join(
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", at.Month()),
		fmt.Sprintf("%02d", at.Day()),
		fmt.Sprintf("%02d", at.Hour()),
	)
}

// ResolveDataPath joins basePath, the hierarchical directory, and
// storageFilename, and guards against the result escaping basePath —
// the only defense needed since storageFilename never contains a
// separator by construction, but callers may pass file_id-derived paths
// too, so the check stays general.
func ResolveDataPath(basePath string, relDir string, storageFilename string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	candidate := filepath.Join(absBase, relDir, storageFilename)
	candidate = filepath.Clean(candidate)

	if candidate != absBase && !strings.HasPrefix(candidate, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return candidate, nil
}
