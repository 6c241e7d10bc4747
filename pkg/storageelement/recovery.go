package storageelement

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// RecoverWAL scans the WAL for non-terminal entries left behind by a
// crash and resolves each one:
//   - data file present, no attr.json -> the file was never observable,
//     delete the orphan data file and roll back.
//   - both files present and the attr.json's checksum matches the data
//     bytes -> the write actually completed; mark COMMITTED.
//   - anything else -> execute the entry's compensation data and roll
//     back.
//
// Called once, synchronously, before Open returns.
func (e *Element) RecoverWAL() error {
	entries, err := e.wal.NonTerminal()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := e.recoverEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (e *Element) recoverEntry(entry *WALEntry) error {
	dataPath := entry.CompensationData.DataPath
	attrPathStr := entry.CompensationData.AttrPath

	// On S3 elements the data bytes are remote, but the attr sidecar is
	// written strictly after the PutObject succeeds, so its presence is
	// the commit witness: parseable sidecar means the object landed.
	if e.objects != nil {
		if fileExists(attrPathStr) {
			if _, err := readAttrFile(dataPath); err == nil {
				return e.wal.Commit(entry)
			}
		}
		e.rollbackUpload(entry.CompensationData)
		return e.wal.RollBack(entry)
	}

	dataExists := fileExists(dataPath)
	attrExists := fileExists(attrPathStr)

	switch {
	case dataExists && !attrExists:
		os.Remove(dataPath)
		return e.wal.RollBack(entry)

	case dataExists && attrExists:
		attr, err := readAttrFile(dataPath)
		if err == nil && checksumMatches(dataPath, attr.Checksum) {
			return e.wal.Commit(entry)
		}
		os.Remove(dataPath)
		os.Remove(attrPathStr)
		return e.wal.RollBack(entry)

	default:
		os.Remove(dataPath)
		os.Remove(attrPathStr)
		os.Remove(dataPath + ".tmp")
		os.Remove(attrPathStr + ".tmp")
		return e.wal.RollBack(entry)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func checksumMatches(dataPath, expectedHex string) bool {
	if expectedHex == "" {
		return false
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return false
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	return hex.EncodeToString(h.Sum(nil)) == expectedHex
}
