package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// FileSource reads documents from a directory. Paths are interpreted relative
// to the root, so "/docs/a.docx" and "docs/a.docx" name the same file.
type FileSource struct {
	root     string
	fsys     fs.FS
	maxBytes int64
}

// NewFileSource creates a source rooted at dir. maxBytes <= 0 disables the
// size limit.
func NewFileSource(dir string, maxBytes int64) *FileSource {
	return &FileSource{root: dir, fsys: os.DirFS(dir), maxBytes: maxBytes}
}

// Root returns the directory the source reads from.
func (s *FileSource) Root() string {
	return s.root
}

// Open reads the document at p.
func (s *FileSource) Open(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.Name(p)
	if err != nil {
		return nil, err
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	r := io.Reader(f)
	if s.maxBytes > 0 {
		r = io.LimitReader(f, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("read %s: %w (%d bytes max)", p, ErrTooLarge, s.maxBytes)
	}
	return data, nil
}

// Name maps a document path to a name inside the root, rejecting paths that
// would escape it.
func (s *FileSource) Name(p string) (string, error) {
	name := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(p)), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid document path %q", p)
	}
	return name, nil
}
