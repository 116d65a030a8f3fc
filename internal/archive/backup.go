package archive

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/docfix/internal/fileutil"
)

const (
	// BackupSuffix is appended to a document path to name its backup.
	BackupSuffix = ".bak.tar.xz"

	manifestEntry = "manifest.json"
	documentDir   = "document/"
)

// Injectable for testing.
var now = time.Now

// Manifest describes the document stored in a backup archive.
type Manifest struct {
	Source    string `json:"source"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	BLAKE3    string `json:"blake3"`
	RunID     string `json:"run_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// BackupPath returns the backup archive path for a document.
func BackupPath(docPath string) string {
	return docPath + BackupSuffix
}

// Backup stores a copy of the file at src in a tar.xz archive next to it and
// returns the archive path. An existing backup is replaced.
func Backup(src, runID string) (string, *Manifest, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", src, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", src, err)
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	sum := blake3.Sum256(data)
	m := &Manifest{
		Source:    abs,
		Name:      filepath.Base(src),
		Size:      int64(len(data)),
		BLAKE3:    hex.EncodeToString(sum[:]),
		RunID:     runID,
		CreatedAt: now().UTC().Format(time.RFC3339),
	}
	mdata, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode manifest: %w", err)
	}

	archive, err := BuildTarXz([]Entry{
		{Name: manifestEntry, Data: mdata, ModTime: now()},
		{Name: documentDir + m.Name, Data: data, Mode: int64(info.Mode().Perm()), ModTime: info.ModTime()},
	})
	if err != nil {
		return "", nil, err
	}

	dst := BackupPath(src)
	if err := fileutil.WriteFileAtomic(dst, archive, 0644); err != nil {
		return "", nil, fmt.Errorf("write backup: %w", err)
	}
	return dst, m, nil
}

// ReadBackup returns the manifest and document bytes of a backup archive,
// after checking the document against the manifest digest.
func ReadBackup(path string) (*Manifest, []byte, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return nil, nil, err
	}

	mdata, ok := entries[manifestEntry]
	if !ok {
		return nil, nil, fmt.Errorf("%s: missing %s", path, manifestEntry)
	}
	var m Manifest
	if err := json.Unmarshal(mdata, &m); err != nil {
		return nil, nil, fmt.Errorf("%s: decode manifest: %w", path, err)
	}

	data, ok := entries[documentDir+m.Name]
	if !ok {
		return nil, nil, fmt.Errorf("%s: missing document %s", path, m.Name)
	}
	sum := blake3.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != m.BLAKE3 {
		return nil, nil, fmt.Errorf("%s: checksum mismatch: manifest %s, content %s", path, m.BLAKE3, got)
	}
	return &m, data, nil
}

// Restore writes the document held in the backup at path to dst. An empty
// dst restores to the manifest's source path.
func Restore(path, dst string) (*Manifest, error) {
	m, data, err := ReadBackup(path)
	if err != nil {
		return nil, err
	}
	if dst == "" {
		dst = m.Source
	}
	if err := fileutil.WriteFileAtomic(dst, data, 0644); err != nil {
		return nil, fmt.Errorf("restore %s: %w", dst, err)
	}
	return m, nil
}
