// Package upload отправляет файлы доказательств внешнему провайдеру хранения.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// sniffLen столько байт filetype нужно для определения типа.
const sniffLen = 261

var (
	// ErrUnknownType тип файла не распознан.
	ErrUnknownType = errors.New("upload: не удалось определить тип файла")
	// ErrEmptyURL провайдер не вернул ссылку.
	ErrEmptyURL = errors.New("upload: провайдер не вернул ссылку")
)

// File загружаемый файл.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// ProgressFunc получает число отправленных байт и общий размер.
type ProgressFunc func(sent, total int64)

// Provider внешнее хранилище, возвращающее публичную ссылку на файл.
type Provider interface {
	Upload(ctx context.Context, medium models.EvidenceMedium, f File, progress ProgressFunc) (string, error)
}

// Sniff определяет, изображение это или видео, по магическим байтам.
// Возвращает reader, который заново отдаёт прочитанный заголовок.
func Sniff(r io.Reader) (models.EvidenceMedium, string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", nil, fmt.Errorf("upload: не удалось прочитать файл: %w", err)
	}
	head = head[:n]
	replay := io.MultiReader(bytes.NewReader(head), r)

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", "", replay, ErrUnknownType
	}

	switch {
	case filetype.IsImage(head):
		return models.MediumImage, kind.MIME.Value, replay, nil
	case filetype.IsVideo(head):
		return models.MediumVideo, kind.MIME.Value, replay, nil
	}
	return "", kind.MIME.Value, replay, ErrUnknownType
}

// objectName уникальное имя объекта в хранилище.
func objectName(medium models.EvidenceMedium, original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("evidence/%s/%s%s", medium, uuid.NewString(), ext)
}

// countingReader сообщает о прогрессе чтения.
type countingReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.progress != nil {
			c.progress(c.sent, c.total)
		}
	}
	return n, err
}
