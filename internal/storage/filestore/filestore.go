// Пакет filestore — хранение загруженных бинарных файлов каталога на диске.
// Запись идёт потоком во временный файл с подсчётом SHA-256,
// затем fsync и атомарный rename в каталог загрузок.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// ErrOutsideStore — путь не принадлежит каталогу загрузок.
var ErrOutsideStore = errors.New("путь вне каталога загрузок")

// Store — каталог загрузок (CM_UPLOAD_DIR).
type Store struct {
	dir string
	now func() time.Time
}

// Stored — результат сохранения загрузки.
type Stored struct {
	// Path — путь, записываемый в FileRecord.FilePath (например, uploads/a_u_20260101_1a2b3c4d.pdf)
	Path string
	Size int64
	// Checksum — SHA-256 содержимого в hex
	Checksum string
}

// New создаёт Store и при необходимости создаёт каталог.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог загрузок %s: %w", dir, err)
	}
	return &Store{dir: filepath.Clean(dir), now: time.Now}, nil
}

// Dir возвращает каталог загрузок.
func (s *Store) Dir() string {
	return s.dir
}

// Save записывает содержимое r под уникальным именем.
// При ошибке временный файл удаляется, каталог остаётся без мусора.
func (s *Store) Save(ctx context.Context, r io.Reader, originalName string, owner model.UserID) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := s.storageName(originalName, owner.String())
	fullPath := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(format string, err error) (*Stored, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf(format, err)
	}

	hasher := sha256.New()
	size, err := io.Copy(tmp, io.TeeReader(r, hasher))
	if err != nil {
		return fail("ошибка записи данных: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("ошибка fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &Stored{
		Path:     filepath.ToSlash(fullPath),
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Delete удаляет ранее сохранённый файл по пути из Stored.Path.
// Отсутствующий файл не считается ошибкой.
func (s *Store) Delete(storedPath string) error {
	fullPath, err := s.resolve(storedPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storedPath, err)
	}
	return nil
}

// Exists проверяет наличие сохранённого файла.
func (s *Store) Exists(storedPath string) bool {
	fullPath, err := s.resolve(storedPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// resolve переводит Stored.Path в путь на диске, не выходя за пределы каталога.
func (s *Store) resolve(storedPath string) (string, error) {
	p := filepath.Clean(filepath.FromSlash(storedPath))
	if filepath.Dir(p) != s.dir {
		return "", fmt.Errorf("%w: %s", ErrOutsideStore, storedPath)
	}
	return p, nil
}

// storageName — {name}_{user}_{timestamp}_{uuid8}{ext}.
func (s *Store) storageName(originalName, owner string) string {
	base := filepath.Base(filepath.FromSlash(originalName))
	ext := cleanName(filepath.Ext(base), true)
	name := cleanName(strings.TrimSuffix(base, filepath.Ext(base)), false)
	user := cleanName(owner, false)

	name = truncateRunes(name, 50)
	user = truncateRunes(user, 20)
	if len(ext) > 16 {
		ext = ""
	}

	ts := s.now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s_%s_%s_%s%s", name, user, ts, uuid.New().String()[:8], ext)
}

// cleanName оставляет буквы, цифры, дефис и подчёркивание.
// Для расширения сохраняется ведущая точка.
func cleanName(s string, isExt bool) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case isExt && i == 0 && r == '.':
			b.WriteRune(r)
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if isExt {
		if out == "." {
			return ""
		}
		return out
	}
	if out == "" {
		return "file"
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
