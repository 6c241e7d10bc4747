package storageelement

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestRecoverWALRemovesOrphanDataWithNoAttr(t *testing.T) {
	el := newTestElement(t)

	dataPath := filepath.Join(el.cfg.BasePath, "2026/03/05/12", "orphan_user_1.bin")
	if err := ensureDir(dataPath); err != nil {
		t.Fatalf("ensureDir: %v", err)
	}
	if err := os.WriteFile(dataPath, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write orphan data: %v", err)
	}

	entry, err := el.wal.Begin(OpUpload, nil, Compensation{DataPath: dataPath, AttrPath: attrPath(dataPath)})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := el.RecoverWAL(); err != nil {
		t.Fatalf("RecoverWAL: %v", err)
	}

	if _, err := os.Stat(dataPath); !os.IsNotExist(err) {
		t.Error("expected orphan data file to be removed")
	}

	got, err := el.wal.Get(entry.TransactionID)
	if err != nil {
		t.Fatalf("wal.Get: %v", err)
	}
	if got.Status != TxRolledBack {
		t.Errorf("expected ROLLED_BACK, got %s", got.Status)
	}
}

func TestRecoverWALCommitsCompletedWriteFoundInProgress(t *testing.T) {
	el := newTestElement(t)

	body := []byte("fully written")
	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	dataPath := filepath.Join(el.cfg.BasePath, "2026/03/05/12", "complete_user_1.bin")
	if err := ensureDir(dataPath); err != nil {
		t.Fatalf("ensureDir: %v", err)
	}
	if err := os.WriteFile(dataPath, body, 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	attr := &AttrFile{
		SchemaVersion:    AttrSchemaVersion,
		FileID:           "f-complete",
		StorageFilename:  "complete_user_1.bin",
		FileSize:         int64(len(body)),
		Checksum:         checksum,
		CustomAttributes: map[string]any{},
	}
	if err := writeAttrFile(dataPath, attr); err != nil {
		t.Fatalf("writeAttrFile: %v", err)
	}

	entry, err := el.wal.Begin(OpUpload, nil, Compensation{DataPath: dataPath, AttrPath: attrPath(dataPath)})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := el.RecoverWAL(); err != nil {
		t.Fatalf("RecoverWAL: %v", err)
	}

	if _, err := os.Stat(dataPath); err != nil {
		t.Error("expected completed write's data file to survive recovery")
	}

	got, err := el.wal.Get(entry.TransactionID)
	if err != nil {
		t.Fatalf("wal.Get: %v", err)
	}
	if got.Status != TxCommitted {
		t.Errorf("expected COMMITTED, got %s", got.Status)
	}
}

func TestRecoverWALRollsBackOnChecksumMismatch(t *testing.T) {
	el := newTestElement(t)

	dataPath := filepath.Join(el.cfg.BasePath, "2026/03/05/12", "corrupt_user_1.bin")
	if err := ensureDir(dataPath); err != nil {
		t.Fatalf("ensureDir: %v", err)
	}
	if err := os.WriteFile(dataPath, []byte("corrupted bytes"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	attr := &AttrFile{
		SchemaVersion:    AttrSchemaVersion,
		FileID:           "f-corrupt",
		Checksum:         "0000000000000000000000000000000000000000000000000000000000000000",
		CustomAttributes: map[string]any{},
	}
	if err := writeAttrFile(dataPath, attr); err != nil {
		t.Fatalf("writeAttrFile: %v", err)
	}

	entry, err := el.wal.Begin(OpUpload, nil, Compensation{DataPath: dataPath, AttrPath: attrPath(dataPath)})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := el.RecoverWAL(); err != nil {
		t.Fatalf("RecoverWAL: %v", err)
	}

	if _, err := os.Stat(dataPath); !os.IsNotExist(err) {
		t.Error("expected corrupted data file to be removed")
	}

	got, err := el.wal.Get(entry.TransactionID)
	if err != nil {
		t.Fatalf("wal.Get: %v", err)
	}
	if got.Status != TxRolledBack {
		t.Errorf("expected ROLLED_BACK, got %s", got.Status)
	}
}
