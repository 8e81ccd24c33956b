// Package storage stages uploaded files on local disk.
//
// Files land in a subdirectory per media kind (audio, video, images,
// documents) under a random name, so two uploads called "memo.m4a" never
// collide and a client-chosen name never becomes a path.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/execmind/internal/apperror"
)

// Kind is the subdirectory a file is staged in.
type Kind string

const (
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindImage    Kind = "images"
	KindDocument Kind = "documents"
)

var allowedTypes = map[string]Kind{
	"audio/mp3":   KindAudio,
	"audio/wav":   KindAudio,
	"audio/m4a":   KindAudio,
	"audio/x-m4a": KindAudio,
	"audio/mpeg":  KindAudio,
	"audio/mp4":   KindAudio,
	"audio/webm":  KindAudio,
	"audio/ogg":   KindAudio,

	"video/mp4": KindVideo,
	"video/avi": KindVideo,
	"video/mov": KindVideo,
	"video/wmv": KindVideo,

	"image/jpeg": KindImage,
	"image/jpg":  KindImage,
	"image/png":  KindImage,
	"image/gif":  KindImage,

	"application/pdf":          KindDocument,
	"text/plain":               KindDocument,
	"application/msword":       KindDocument,
	"application/vnd.ms-excel": KindDocument,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDocument,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       KindDocument,
}

// KindOf returns the kind for a Content-Type header value, ignoring
// parameters such as "; codecs=opus".
func KindOf(contentType string) (Kind, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	k, ok := allowedTypes[mt]
	return k, ok
}

// Upload describes a staged file.
type Upload struct {
	Path         string
	Kind         Kind
	OriginalName string
	Size         int64
}

// Local stages files under a root directory.
type Local struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewLocal(dir string, maxBytes int64) *Local {
	return &Local{dir: dir, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes is the largest file Save accepts.
func (l *Local) MaxBytes() int64 { return l.maxBytes }

// Save copies r to a new file named "<unix-ms>-<uuid><ext>" in the kind's
// subdirectory. Unknown content types and files over the size limit are
// validation errors; nothing is left on disk when Save fails.
func (l *Local) Save(r io.Reader, originalName, contentType string) (*Upload, error) {
	kind, ok := KindOf(contentType)
	if !ok {
		return nil, apperror.ValidationFailed("file", fmt.Sprintf("File type %s not allowed", contentType))
	}

	dir := filepath.Join(l.dir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	name := fmt.Sprintf("%d-%s%s", l.now().UnixMilli(), uuid.New().String(), strings.ToLower(filepath.Ext(originalName)))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", path, err)
	}

	// read one byte past the limit so an oversized file is detectable
	n, err := io.Copy(f, io.LimitReader(r, l.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("storage: writing %s: %w", path, err)
	}
	if n > l.maxBytes {
		os.Remove(path)
		return nil, apperror.ValidationFailed("file", "File too large")
	}

	return &Upload{Path: path, Kind: kind, OriginalName: filepath.Base(originalName), Size: n}, nil
}

// Delete removes a staged file. A file that is already gone is not an error.
func (l *Local) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: deleting %s: %w", path, err)
	}
	return nil
}

// Sweep deletes staged files older than maxAge. Transcription deletes its
// own files; this catches anything left behind by a crash mid-request.
func (l *Local) Sweep(maxAge time.Duration, logger *slog.Logger) (int, error) {
	cutoff := l.now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to remove stale upload", slog.String("path", path), slog.String("error", err.Error()))
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("storage: sweeping %s: %w", l.dir, err)
	}
	return removed, nil
}
