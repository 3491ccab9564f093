package helpers

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/tytm/internal/security"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// ArchiveType identifies a supported archive container
type ArchiveType string

const (
	ArchiveZip     ArchiveType = "zip"
	ArchiveTarGz   ArchiveType = "tar.gz"
	ArchiveTarXz   ArchiveType = "tar.xz"
	ArchiveTar     ArchiveType = "tar"
	ArchiveUnknown ArchiveType = "unknown"
)

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	gzipMagic     = []byte{0x1f, 0x8b}
	xzMagic       = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	tarMagic      = []byte("ustar")
)

const tarMagicOffset = 257

// DetectArchiveType identifies an archive by its magic bytes, falling back
// to the file extension when the header is inconclusive.
func DetectArchiveType(fs afero.Fs, path string) (ArchiveType, error) {
	f, err := fs.Open(path)
	if err != nil {
		return ArchiveUnknown, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ArchiveUnknown, fmt.Errorf("failed to read archive header: %w", err)
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, zipMagic), bytes.HasPrefix(header, zipEmptyMagic):
		return ArchiveZip, nil
	case bytes.HasPrefix(header, gzipMagic):
		return ArchiveTarGz, nil
	case bytes.HasPrefix(header, xzMagic):
		return ArchiveTarXz, nil
	case len(header) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(header[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return ArchiveTar, nil
	}

	return archiveTypeFromName(path), nil
}

func archiveTypeFromName(path string) ArchiveType {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return ArchiveZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return ArchiveTarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return ArchiveTarXz
	case strings.HasSuffix(lower, ".tar"):
		return ArchiveTar
	}
	return ArchiveUnknown
}

// ExtractArchive detects the archive type and extracts it into destDir
func ExtractArchive(fs afero.Fs, archivePath, destDir string) error {
	kind, err := DetectArchiveType(fs, archivePath)
	if err != nil {
		return err
	}

	switch kind {
	case ArchiveZip:
		return ExtractZip(fs, archivePath, destDir)
	case ArchiveTarGz:
		return ExtractTarGz(fs, archivePath, destDir)
	case ArchiveTarXz:
		return ExtractTarXz(fs, archivePath, destDir)
	case ArchiveTar:
		return ExtractTar(fs, archivePath, destDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
}

// ExtractTarGz extracts a .tar.gz archive with security checks
func ExtractTarGz(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	return extractTar(fs, gzr, destDir)
}

// ExtractTarXz extracts a .tar.xz archive with security checks
func ExtractTarXz(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	xzr, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	return extractTar(fs, xzr, destDir)
}

// ExtractTar extracts a .tar archive with security checks
func ExtractTar(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	return extractTar(fs, file, destDir)
}

func extractTar(fs afero.Fs, r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		// pax global headers carry no file
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		if err := security.ValidateExtractPath(destDir, header.Name); err != nil {
			return fmt.Errorf("invalid path in archive: %w", err)
		}

		target := filepath.Join(destDir, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, os.FileMode(header.Mode)|0700); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := writeFile(fs, tr, target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("failed to extract file %s: %w", header.Name, err)
			}

		case tar.TypeSymlink:
			if err := security.ValidateSymlink(destDir, target, header.Linkname); err != nil {
				return fmt.Errorf("invalid symlink: %w", err)
			}

			linker, ok := fs.(afero.Linker)
			if !ok {
				continue
			}
			if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := linker.SymlinkIfPossible(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}

		case tar.TypeLink:
			if err := security.ValidateExtractPath(destDir, header.Linkname); err != nil {
				return fmt.Errorf("invalid hard link target: %w", err)
			}

			// hard links become independent copies of an already extracted entry
			if err := copyEntry(fs, filepath.Join(destDir, header.Linkname), target); err != nil {
				return fmt.Errorf("failed to create hard link: %w", err)
			}

		default:
			continue
		}
	}

	return nil
}

func copyEntry(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	return writeFile(fs, in, dst, info.Mode().Perm())
}

func writeFile(fs afero.Fs, r io.Reader, target string, mode os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0600)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}

	return f.Close()
}

// ExtractZip extracts a .zip archive with security checks
func ExtractZip(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat zip: %w", err)
	}

	r, err := zip.NewReader(file, info.Size())
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}

	for _, f := range r.File {
		if err := security.ValidateExtractPath(destDir, f.Name); err != nil {
			return fmt.Errorf("invalid path in zip: %w", err)
		}

		target := filepath.Join(destDir, f.Name)

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, f.Mode().Perm()|0700); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := extractZipFile(fs, f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}

	return nil
}

func extractZipFile(fs afero.Fs, f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip file entry: %w", err)
	}
	defer rc.Close()

	return writeFile(fs, rc, target, f.Mode())
}
