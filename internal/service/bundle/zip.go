package bundle

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// writeZip compresses rootDir/baseDir into zipPath, with entry names
// rooted at baseDir so the archive unpacks into a single directory.
func writeZip(zipPath, rootDir, baseDir string) error {
	out, err := os.Create(filepath.Clean(zipPath))
	if err != nil {
		return err
	}

	writer := zip.NewWriter(out)

	err = filepath.WalkDir(filepath.Join(rootDir, baseDir), func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return relErr
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return headerErr
		}

		header.Name = filepath.ToSlash(rel)

		if d.IsDir() {
			header.Name += "/"
			_, createErr := writer.CreateHeader(header)

			return createErr
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		header.Method = zip.Deflate

		entry, createErr := writer.CreateHeader(header)
		if createErr != nil {
			return createErr
		}

		file, openErr := os.Open(filepath.Clean(path))
		if openErr != nil {
			return openErr
		}

		defer func() {
			_ = file.Close()
		}()

		_, copyErr := io.Copy(entry, file)

		return copyErr
	})
	if err != nil {
		_ = writer.Close()
		_ = out.Close()

		return err
	}

	if err = writer.Close(); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
