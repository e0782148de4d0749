package models

// EvidenceMedium тип доказательства: набор изображений или одно видео.
type EvidenceMedium string

const (
	MediumImage EvidenceMedium = "image"
	MediumVideo EvidenceMedium = "video"
)

func (m EvidenceMedium) IsValid() bool {
	return m == MediumImage || m == MediumVideo
}

// EvidenceDraft содержимое открытого диалога ответа на жалобу.
type EvidenceDraft struct {
	ReportID  int64          `json:"report_id"`
	Content   string         `json:"content"`
	Medium    EvidenceMedium `json:"medium"`
	ImageURLs []string       `json:"image_urls"`
	VideoURL  string         `json:"video_url,omitempty"`
}

// GiveEvidenceRequest тело запроса ответа партнёра на жалобу.
type GiveEvidenceRequest struct {
	ReportID  int64    `json:"reportId"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls"`
	VideoURL  *string  `json:"videoUrl"`
}

// EvidencePatch частичное обновление черновика ответа.
type EvidencePatch struct {
	Content *string         `json:"content"`
	Medium  *EvidenceMedium `json:"medium"`
}
