package content

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quizhall/backend/internal/models"
)

const packageContentFile = "content.xml"

// ParseJeopardyArchive reads a zipped SIGame package: the scenario lives in
// content.xml at the archive root, everything else is media.
func ParseJeopardyArchive(r io.ReaderAt, size int64) (*models.Game, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, badFormat("not a zip archive")
	}
	for _, f := range archive.File {
		if f.Name != packageContentFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, badFormat("%v", err)
		}
		defer rc.Close()
		return parseJeopardy(rc)
	}
	return nil, badFormat("package has no %s", packageContentFile)
}

// ExtractMedia unpacks the package's media files (everything but the
// scenario) under dir, which becomes the session's static media root.
// Entries escaping dir are skipped.
func ExtractMedia(r io.ReaderAt, size int64, dir string) error {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return badFormat("not a zip archive")
	}
	for _, f := range archive.File {
		if f.Name == packageContentFile || f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, rc)
	return err
}
