package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// HTTPProvider загружает файлы через unsigned upload API (в формате Cloudinary).
type HTTPProvider struct {
	baseURL    string
	preset     string
	httpClient *http.Client
}

// NewHTTPProvider создаёт провайдера.
func NewHTTPProvider(baseURL, preset string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		preset:  preset,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // видео до 50 МБ на медленном канале
		},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload отправляет файл multipart-запросом, прогресс считается по отданным байтам.
func (p *HTTPProvider) Upload(ctx context.Context, medium models.EvidenceMedium, f File, progress ProgressFunc) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, p.preset, objectName(medium, f.Name), f, progress)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/%s/upload", p.baseURL, medium)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return "", fmt.Errorf("upload: не удалось сформировать запрос: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("upload: некорректный ответ провайдера: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("upload: провайдер вернул %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("upload: провайдер вернул %d", resp.StatusCode)
	}

	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", ErrEmptyURL
}

func writeMultipart(mw *multipart.Writer, preset, publicID string, f File, progress ProgressFunc) error {
	if err := mw.WriteField("upload_preset", preset); err != nil {
		return err
	}
	if err := mw.WriteField("public_id", publicID); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, &countingReader{r: f.Reader, total: f.Size, progress: progress})
	return err
}
