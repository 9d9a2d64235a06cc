// Package blob: файловое хранилище вложений. Ключ blob-а — относительный путь
// вида complaints/<id>/<filename>. Запись идёт во временный файл, после fsync
// он публикуется жёсткой ссылкой, которая не перезаписывает занятое имя.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/psds-microservice/complaint-service/internal/errs"
)

// ErrTooLarge: содержимое превысило лимит.
var ErrTooLarge = errs.Invalid("file", "file exceeds the upload size limit")

// maxNameAttempts: сколько имён с суффиксом пробуется при занятом ключе.
const maxNameAttempts = 8

type Store struct {
	root string
}

// New создаёт хранилище с корнем root.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

// resolve превращает ключ в путь на диске, не выпуская его за пределы root.
func (s *Store) resolve(key string) (string, error) {
	clean := normalize(key)
	if clean == "" {
		return "", errs.Invalid("file", "empty file path")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// normalize приводит ключ к виду a/b/c без выхода за корень.
func normalize(key string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
}

// Put записывает содержимое r под ключом key, а если имя занято, под key с
// коротким суффиксом перед расширением. Существующий blob не перезаписывается.
// limit > 0 ограничивает размер. Возвращает фактический ключ и число байт.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, limit int64) (string, int64, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", 0, err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("blob: mkdir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("blob: create temp: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: src})
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("blob: write %s: %w", key, err)
	}

	base := normalize(key)
	candidate := base
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if attempt > 0 {
			candidate = Suffixed(base, uuid.NewString()[:8])
		}
		target, err := s.resolve(candidate)
		if err != nil {
			return "", 0, err
		}
		err = os.Link(tmp, target)
		if err == nil {
			return candidate, n, nil
		}
		if !os.IsExist(err) {
			return "", 0, fmt.Errorf("blob: publish %s: %w", candidate, err)
		}
	}
	return "", 0, fmt.Errorf("blob: no free name for %s", key)
}

// Suffixed: report.pdf → report_<tag>.pdf
func Suffixed(name, tag string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + tag + ext
}

// Open открывает blob на чтение. Закрывает вызывающий.
func (s *Store) Open(key string) (*os.File, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrBlobNotFound
		}
		return nil, fmt.Errorf("blob: open %s: %w", key, err)
	}
	return f, nil
}

// Delete удаляет blob; отсутствие файла не ошибка.
func (s *Store) Delete(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(key string) bool {
	full, err := s.resolve(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
