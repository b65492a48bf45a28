package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const thumbnailDir = "thumbnails"

// FileStore persists original images and their thumbnails on disk.
type FileStore interface {
	WriteOriginal(data []byte, filename, directory string) error
	WriteThumbnail(data []byte, filename, directory string, maxDim int) error
	// Delete removes the original and its thumbnail. ErrFileNotFound means
	// neither existed.
	Delete(filename, directory string) error
	Exists(filename, directory string) bool
	ThumbnailExists(filename, directory string) bool
	// List returns the original filenames stored in directory.
	List(directory string) ([]string, error)
}

// LocalStore is a FileStore rooted at a directory on the local filesystem.
// Every write re-encodes the image, which drops EXIF and other metadata.
type LocalStore struct {
	root    string
	quality int
}

func NewLocalStore(root string, quality int) *LocalStore {
	return &LocalStore{root: root, quality: quality}
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) WriteOriginal(data []byte, filename, directory string) error {
	target, err := s.path(directory, filename)
	if err != nil {
		return err
	}
	img, format, err := decode(data, filename)
	if err != nil {
		return err
	}
	return s.encodeTo(target, img, format)
}

func (s *LocalStore) WriteThumbnail(data []byte, filename, directory string, maxDim int) error {
	if maxDim <= 0 {
		return fmt.Errorf("invalid thumbnail dimension %d", maxDim)
	}
	target, err := s.path(filepath.Join(directory, thumbnailDir), filename)
	if err != nil {
		return err
	}
	img, format, err := decode(data, filename)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	return s.encodeTo(target, img, format)
}

func (s *LocalStore) Delete(filename, directory string) error {
	original, err := s.path(directory, filename)
	if err != nil {
		return err
	}
	thumb, err := s.path(filepath.Join(directory, thumbnailDir), filename)
	if err != nil {
		return err
	}

	removedOriginal, err := removeIfExists(original)
	if err != nil {
		return err
	}
	removedThumb, err := removeIfExists(thumb)
	if err != nil {
		return err
	}
	if !removedOriginal && !removedThumb {
		return fmt.Errorf("%w: %s/%s", ErrFileNotFound, directory, filename)
	}
	return nil
}

func (s *LocalStore) Exists(filename, directory string) bool {
	p, err := s.path(directory, filename)
	return err == nil && isFile(p)
}

func (s *LocalStore) ThumbnailExists(filename, directory string) bool {
	p, err := s.path(filepath.Join(directory, thumbnailDir), filename)
	return err == nil && isFile(p)
}

func (s *LocalStore) List(directory string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.Clean(directory)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", directory, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// path resolves directory/filename under the root, refusing anything that
// would escape it.
func (s *LocalStore) path(directory, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	dir := filepath.Clean(directory)
	if filepath.IsAbs(dir) || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid directory %q", directory)
	}
	return filepath.Join(s.root, dir, filename), nil
}

func (s *LocalStore) encodeTo(target string, img stdimage.Image, format imaging.Format) error {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, format,
		imaging.JPEGQuality(s.quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(target), err)
	}
	return writeAtomic(target, buf.Bytes())
}

func decode(data []byte, filename string) (stdimage.Image, imaging.Format, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	return img, format, nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place, creating the directory tree on first use.
func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(target), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(target), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename into %s: %w", filepath.Base(target), err)
	}
	return nil
}

func removeIfExists(p string) (bool, error) {
	err := os.Remove(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("remove %s: %w", filepath.Base(p), err)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
