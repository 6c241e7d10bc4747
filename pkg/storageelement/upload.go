package storageelement

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/bufpool"
	"github.com/artstore/artstore/pkg/metrics"
)

// UploadRequest carries everything the atomic write protocol needs about
// an incoming file. Reader is consumed exactly once.
type UploadRequest struct {
	Reader              io.Reader
	OriginalFilename     string
	ContentType          string
	UploadedByID         string
	UploadedByUsername   string
	Description          string
	RetentionDays        int
	Tags                 []string
	DeclaredSize         int64  // 0 if unknown
	ExpectedChecksumHex  string // optional, caller-supplied
}

// UploadResult is returned on a successful upload. FileSize and
// ChecksumHex describe the stored bytes; for a compressed file,
// OriginalSize carries the pre-compression byte count.
type UploadResult struct {
	FileID               string `json:"file_id"`
	StorageFilename      string `json:"storage_filename"`
	FileSize             int64  `json:"file_size"`
	ChecksumHex          string `json:"checksum_hex"`
	StoragePath          string `json:"storage_path"`
	Compressed           bool   `json:"compressed,omitempty"`
	CompressionAlgorithm string `json:"compression_algorithm,omitempty"`
	OriginalSize         int64  `json:"original_size,omitempty"`
}

// Upload runs the atomic write protocol: WAL PENDING/IN_PROGRESS, stream to
// a temp file with an incremental SHA-256, fsync + rename the data file
// (or put it to the bucket on S3 elements), write the attr.json sidecar
// via its own temp+fsync+rename, upsert the cache row, then WAL
// COMMITTED. Any failure from the byte stream onward triggers
// best-effort rollback and a WAL FAILED entry.
func (e *Element) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, span := telemetry.StartUploadSpan(ctx, req.UploadedByID,
		telemetry.ElementID(e.cfg.ElementID),
		telemetry.FSSize(req.DeclaredSize))
	defer span.End()

	timer := metrics.NewTimer()
	defer func() { timer.ObserveDuration(metrics.UploadDuration) }()

	if !e.mode.Permits(OpCreate) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrModeForbidsOperation
	}
	if req.DeclaredSize > 0 && !e.hasRoomFor(req.DeclaredSize) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInsufficientStorage
	}

	now := time.Now()
	fileID := uuid.New().String()

	storageFilename, err := DeriveStorageFilename(req.OriginalFilename, req.UploadedByID, now)
	if err != nil {
		return nil, err
	}

	relDir := HierarchicalDir(now)
	dataPath, err := ResolveDataPath(e.cfg.BasePath, relDir, storageFilename)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(dataPath); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	compensation := Compensation{DataPath: dataPath, AttrPath: attrPath(dataPath)}
	if e.objects != nil {
		compensation.ObjectKey = e.dataObjectKey(dataPath)
	}
	payload := map[string]any{
		"file_id":          fileID,
		"storage_filename": storageFilename,
		"uploaded_by":      req.UploadedByID,
	}

	entry, err := e.wal.Begin(OpUpload, payload, compensation)
	if err != nil {
		return nil, fmt.Errorf("begin WAL entry: %w", err)
	}

	result, err := e.writeUpload(ctx, req, fileID, storageFilename, dataPath, now)
	if err != nil {
		telemetry.RecordError(ctx, err)
		e.rollbackUpload(compensation)
		if failErr := e.wal.Fail(entry, err); failErr != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w (WAL fail also errored: %v)", err, failErr)
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := e.wal.Commit(entry); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("commit WAL entry: %w", err)
	}

	e.addUsedBytes(result.FileSize)
	metrics.UploadsTotal.WithLabelValues("committed").Inc()
	metrics.CapacityUsedBytes.Set(float64(e.UsedBytes()))
	span.SetAttributes(
		telemetry.FileID(result.FileID),
		telemetry.Checksum(result.ChecksumHex),
	)
	return result, nil
}

// writeUpload performs steps 4-7 of the protocol: stream bytes, move the
// data into place (rename locally, PutObject on S3), write the sidecar,
// and upsert the cache row.
func (e *Element) writeUpload(ctx context.Context, req UploadRequest, fileID, storageFilename, dataPath string, now time.Time) (*UploadResult, error) {
	tmpPath := dataPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload temp file: %w", err)
	}

	// inHasher digests the incoming stream (what the client's checksum
	// describes); when compressing, storedHasher separately digests the
	// gzip output, since the attr checksum contract is over the bytes
	// actually stored.
	compress := e.cfg.shouldCompress(req.ContentType)
	inHasher := sha256.New()
	storedHasher := inHasher
	storedCount := &countingWriter{w: f}
	var sink io.Writer = storedCount
	var gz *gzip.Writer
	if compress {
		storedHasher = sha256.New()
		gz = gzip.NewWriter(io.MultiWriter(storedCount, storedHasher))
		sink = gz
	}

	buf := bufpool.Get(bufpool.DefaultLargeSize)
	defer bufpool.Put(buf)

	var written int64 // incoming (pre-compression) bytes
	maxSize := e.cfg.MaxUploadSize

	for {
		n, readErr := req.Reader.Read(buf)
		if n > 0 {
			written += int64(n)
			if maxSize > 0 && written > maxSize {
				f.Close()
				os.Remove(tmpPath)
				return nil, ErrDeclaredSizeMismatch
			}
			if _, werr := sink.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(tmpPath)
				return nil, fmt.Errorf("write upload bytes: %w", werr)
			}
			inHasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(tmpPath)
			return nil, fmt.Errorf("read upload stream: %w", readErr)
		}
	}

	if req.DeclaredSize > 0 && written != req.DeclaredSize {
		f.Close()
		os.Remove(tmpPath)
		return nil, ErrDeclaredSizeMismatch
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return nil, fmt.Errorf("flush compressed upload data: %w", err)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("fsync upload data: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close upload data: %w", err)
	}

	inChecksum := hex.EncodeToString(inHasher.Sum(nil))
	if req.ExpectedChecksumHex != "" && req.ExpectedChecksumHex != inChecksum {
		os.Remove(tmpPath)
		return nil, ErrChecksumMismatch
	}

	storedSize := storedCount.n
	storedChecksum := inChecksum
	if compress {
		storedChecksum = hex.EncodeToString(storedHasher.Sum(nil))
	}

	storagePath := dataPath
	if e.objects != nil {
		key := e.dataObjectKey(dataPath)
		if err := e.objects.PutFile(ctx, key, tmpPath, req.ContentType); err != nil {
			os.Remove(tmpPath)
			return nil, err
		}
		os.Remove(tmpPath)
		storagePath = key
	} else if err := os.Rename(tmpPath, dataPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename upload data into place: %w", err)
	}

	attr := &AttrFile{
		SchemaVersion:      AttrSchemaVersion,
		FileID:             fileID,
		OriginalFilename:   req.OriginalFilename,
		StorageFilename:    storageFilename,
		FileSize:           storedSize,
		ContentType:        req.ContentType,
		CreatedAt:          now,
		UpdatedAt:          now,
		CreatedByID:        req.UploadedByID,
		CreatedByUsername:  req.UploadedByUsername,
		StoragePath:        storagePath,
		Checksum:           storedChecksum,
		Description:        req.Description,
		Tags:               req.Tags,
		CustomAttributes:   map[string]any{},
	}
	if compress {
		attr.Compressed = true
		attr.CompressionAlgorithm = "gzip"
		attr.OriginalSize = written
	}
	if err := writeAttrFile(dataPath, attr); err != nil {
		e.removeData(dataPath)
		return nil, err
	}

	retentionDays := req.RetentionDays
	if retentionDays == 0 {
		retentionDays = e.cfg.DefaultRetentionDays
	}
	var ttlExpiresAt *time.Time
	if retentionDays > 0 {
		t := now.AddDate(0, 0, retentionDays)
		ttlExpiresAt = &t
	}

	cacheEntry := &CacheEntry{
		FileID:           fileID,
		StorageFilename:  storageFilename,
		DataPath:         dataPath,
		OriginalFilename: req.OriginalFilename,
		FileSize:         storedSize,
		ContentType:      req.ContentType,
		Checksum:         storedChecksum,
		Compressed:       compress,
		CreatedByID:      req.UploadedByID,
		CreatedAt:        now,
		UpdatedAt:        now,
		RetentionPolicy:  "TEMPORARY",
		TTLExpiresAt:     ttlExpiresAt,
	}
	if err := e.cache.Upsert(cacheEntry); err != nil {
		e.removeData(dataPath)
		os.Remove(attrPath(dataPath))
		return nil, fmt.Errorf("upsert cache row: %w", err)
	}

	result := &UploadResult{
		FileID:          fileID,
		StorageFilename: storageFilename,
		FileSize:        storedSize,
		ChecksumHex:     storedChecksum,
		StoragePath:     storagePath,
	}
	if compress {
		result.Compressed = true
		result.CompressionAlgorithm = "gzip"
		result.OriginalSize = written
	}
	return result, nil
}

// countingWriter counts the bytes that reach the underlying writer, so
// the stored size of a compressed upload is known without a re-stat.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// removeData undoes the data placement for this element's storage type:
// unlink locally, DeleteObject on S3. S3 cleanup runs on a detached
// context because compensation must proceed even when the triggering
// failure was the request's own deadline.
func (e *Element) removeData(dataPath string) {
	if e.objects != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = e.objects.Delete(ctx, e.dataObjectKey(dataPath))
		return
	}
	os.Remove(dataPath)
}

// rollbackUpload best-effort removes any files left behind by a failed
// upload attempt.
func (e *Element) rollbackUpload(c Compensation) {
	if c.DataPath != "" {
		os.Remove(c.DataPath)
		os.Remove(c.DataPath + ".tmp")
	}
	if c.ObjectKey != "" && e.objects != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = e.objects.Delete(ctx, c.ObjectKey)
	}
	if c.AttrPath != "" {
		os.Remove(c.AttrPath)
		os.Remove(c.AttrPath + ".tmp")
	}
}

// Delete removes a file's data and attr sidecar and marks its cache row
// deleted, guarded by the WAL the same way Upload is.
func (e *Element) Delete(ctx context.Context, fileID string) error {
	if !e.mode.Permits(OpDelete) {
		return ErrModeForbidsOperation
	}

	entry, err := e.cache.Get(fileID)
	if err != nil {
		return err
	}

	compensation := Compensation{DataPath: entry.DataPath, AttrPath: attrPath(entry.DataPath)}
	if e.objects != nil {
		compensation.ObjectKey = e.dataObjectKey(entry.DataPath)
	}
	wal, err := e.wal.Begin(OpDeleteFile, map[string]any{"file_id": fileID}, compensation)
	if err != nil {
		return fmt.Errorf("begin WAL entry: %w", err)
	}

	if e.objects != nil {
		if err := e.objects.Delete(ctx, compensation.ObjectKey); err != nil {
			e.wal.Fail(wal, err)
			return fmt.Errorf("delete data object: %w", err)
		}
	} else if err := os.Remove(entry.DataPath); err != nil && !os.IsNotExist(err) {
		e.wal.Fail(wal, err)
		return fmt.Errorf("delete data file: %w", err)
	}
	if err := os.Remove(attrPath(entry.DataPath)); err != nil && !os.IsNotExist(err) {
		e.wal.Fail(wal, err)
		return fmt.Errorf("delete attr file: %w", err)
	}
	if err := e.cache.MarkDeleted(fileID); err != nil {
		e.wal.Fail(wal, err)
		return fmt.Errorf("mark cache row deleted: %w", err)
	}

	if err := e.wal.Commit(wal); err != nil {
		return fmt.Errorf("commit WAL entry: %w", err)
	}
	e.addUsedBytes(-entry.FileSize)
	return nil
}
