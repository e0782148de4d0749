package upload

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// GCSProvider складывает доказательства в бакет Google Cloud Storage.
type GCSProvider struct {
	client *storage.Client
	bucket string
}

// NewGCSProvider создаёт клиента GCS. Пустой путь к ключу означает ADC.
func NewGCSProvider(ctx context.Context, bucket, credentialsFile string) (*GCSProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return newGCSProvider(ctx, bucket, opts...)
}

func newGCSProvider(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("upload: не удалось создать клиента GCS: %w", err)
	}
	return &GCSProvider{client: client, bucket: bucket}, nil
}

// Upload пишет объект и возвращает его публичную ссылку.
func (p *GCSProvider) Upload(ctx context.Context, medium models.EvidenceMedium, f File, progress ProgressFunc) (string, error) {
	_, mime, r, err := Sniff(f.Reader)
	if err != nil {
		return "", err
	}

	// Отмена ctx прерывает запись без создания объекта.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := objectName(medium, f.Name)
	w := p.client.Bucket(p.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mime
	w.CacheControl = "public, max-age=86400"
	if progress != nil {
		w.ProgressFunc = func(sent int64) {
			progress(sent, f.Size)
		}
	}

	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return "", fmt.Errorf("upload: ошибка записи в GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload: не удалось завершить загрузку в GCS: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", p.bucket, name), nil
}

// Close освобождает клиента GCS.
func (p *GCSProvider) Close() error {
	return p.client.Close()
}
