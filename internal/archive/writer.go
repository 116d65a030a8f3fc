package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"time"

	"github.com/ulikunitz/xz"
)

// Entry is one file to store in an archive.
type Entry struct {
	Name    string
	Data    []byte
	Mode    int64
	ModTime time.Time
}

// BuildTarXz returns a tar.xz archive holding entries in order.
func BuildTarXz(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	for _, e := range entries {
		mode := e.Mode
		if mode == 0 {
			mode = 0644
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     e.Name,
			Mode:     mode,
			Size:     int64(len(e.Data)),
			ModTime:  e.ModTime,
			Typeflag: tar.TypeReg,
		}); err != nil {
			return nil, fmt.Errorf("write header %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return nil, fmt.Errorf("close xz: %w", err)
	}
	return buf.Bytes(), nil
}
