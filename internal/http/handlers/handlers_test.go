package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/http/middleware"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
	"github.com/ignatzorin/uniform-portal/internal/upload"
)

const testUserID = int64(77)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// stubBackend отвечает заранее заданными данными.
type stubBackend struct {
	reports     []models.Feedback
	reportsErr  *backend.APIError
	feedback    []models.Feedback
	quotations  []models.Quotation
	paymentURL  string
	lastPayment models.PaymentURLRequest
}

func (b *stubBackend) ListReports(context.Context) backend.Result[[]models.Feedback] {
	if b.reportsErr != nil {
		return backend.Fail[[]models.Feedback](b.reportsErr)
	}
	return backend.Ok(b.reports)
}

func (b *stubBackend) ApproveReport(context.Context, models.ApproveReportRequest) backend.Result[struct{}] {
	return backend.Ok(struct{}{})
}

func (b *stubBackend) RefundTransaction(_ context.Context, req models.RefundRequest) backend.Result[models.RefundRequest] {
	return backend.Ok(req)
}

func (b *stubBackend) ListDesignerFeedback(context.Context) backend.Result[[]models.Feedback] {
	return backend.Ok(b.feedback)
}

func (b *stubBackend) GiveEvidence(context.Context, models.GiveEvidenceRequest) backend.Result[struct{}] {
	return backend.Ok(struct{}{})
}

func (b *stubBackend) ListQuotations(context.Context, int64) backend.Result[[]models.Quotation] {
	return backend.Ok(b.quotations)
}

func (b *stubBackend) CreatePaymentURL(_ context.Context, req models.PaymentURLRequest) backend.Result[models.PaymentURL] {
	b.lastPayment = req
	return backend.Ok(models.PaymentURL{URL: b.paymentURL})
}

// cdnProvider возвращает ссылку по имени файла.
type cdnProvider struct{}

func (cdnProvider) Upload(_ context.Context, medium models.EvidenceMedium, f upload.File, _ upload.ProgressFunc) (string, error) {
	if _, err := io.Copy(io.Discard, f.Reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + string(medium) + "/" + f.Name, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// newRouter собирает маршруты без проверки токена: пользователь подставляется напрямую.
func newRouter(api *stubBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reg := workspace.NewRegistry(workspace.Deps{
		API:        api,
		Uploader:   cdnProvider{},
		Payments:   paymentctx.NewMemoryStore(time.Minute),
		ReturnPath: "/school/payment/result",
	}, time.Hour)

	admin := NewAdminHandler(reg)
	designer := NewDesignerHandler(reg)
	school := NewSchoolHandler(reg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Anonymous") == "" {
			c.Set(middleware.ContextUserIDKey, testUserID)
		}
		c.Next()
	})

	r.GET("/admin/reports", admin.ListReports)
	r.POST("/admin/reports/:id/approval", admin.OpenApproval)
	r.PATCH("/admin/reports/approval", admin.UpdateApproval)
	r.POST("/admin/reports/approval/submit", admin.SubmitApproval)
	r.DELETE("/admin/reports/approval", admin.CloseApproval)

	r.POST("/designer/reports/:id/evidence", designer.OpenEvidence)
	r.POST("/designer/evidence/images", designer.UploadImages)
	r.POST("/designer/evidence/video", designer.UploadVideo)

	r.GET("/school/orders/:id/quotations", school.ListQuotations)
	r.POST("/school/quotations/:id/select", school.SelectQuotation)
	r.POST("/school/quotations/payment", school.ProceedToPayment)
	r.GET("/school/payment/result", school.PaymentResult)
	return r
}

func serve(r *gin.Engine, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil && headers["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminHandler_ListReports_Unauthorized(t *testing.T) {
	r := newRouter(&stubBackend{})

	w := serve(r, http.MethodGet, "/admin/reports", nil, map[string]string{"X-Test-Anonymous": "1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_ListReports_FailureIsNotBlocking(t *testing.T) {
	r := newRouter(&stubBackend{reportsErr: &backend.APIError{Status: http.StatusInternalServerError}})

	w := serve(r, http.MethodGet, "/admin/reports", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		Reports struct {
			State string `json:"state"`
			Error string `json:"error"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &state))
	assert.Equal(t, "error", state.Reports.State)
	assert.Equal(t, "Не удалось загрузить жалобы", state.Reports.Error)
}

func TestAdminHandler_ApproveWithoutLevel(t *testing.T) {
	r := newRouter(&stubBackend{reports: []models.Feedback{
		{ID: 10, IsReport: true, Status: models.FeedbackStatusPending},
	}})

	w := serve(r, http.MethodPost, "/admin/reports/10/approval", strings.NewReader(`{"action":"approve"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/admin/reports/approval/submit", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "problem_level", env.Error.Field)

	w = serve(r, http.MethodPatch, "/admin/reports/approval", strings.NewReader(`{"problem_level":"high"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/admin/reports/approval/submit", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_OpenApproval_InvalidID(t *testing.T) {
	r := newRouter(&stubBackend{})

	w := serve(r, http.MethodPost, "/admin/reports/abc/approval", strings.NewReader(`{"action":"approve"}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decode(t, w).Error.Field)
}

func TestDesignerHandler_UploadImages(t *testing.T) {
	r := newRouter(&stubBackend{feedback: []models.Feedback{
		{ID: 20, IsReport: true, Status: models.FeedbackStatusPending},
	}})

	w := serve(r, http.MethodPost, "/designer/reports/20/evidence", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "fabric.png")
	require.NoError(t, err)
	_, err = part.Write(append(pngHeader, make([]byte, 256)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w = serve(r, http.MethodPost, "/designer/evidence/images", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Uploaded  int      `json:"uploaded"`
		ImageURLs []string `json:"image_urls"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, []string{"https://cdn.example.com/image/fabric.png"}, result.ImageURLs)
}

func TestDesignerHandler_UploadVideo_MissingFile(t *testing.T) {
	r := newRouter(&stubBackend{})

	w := serve(r, http.MethodPost, "/designer/evidence/video", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "video", decode(t, w).Error.Field)
}

func TestSchoolHandler_PaymentRoundTrip(t *testing.T) {
	api := &stubBackend{
		quotations: []models.Quotation{
			{ID: 5, GarmentName: "Фабрика Север", Price: 5_000_000, Status: models.QuotationStatusPending},
		},
		paymentURL: "https://pay.example.com/checkout",
	}
	r := newRouter(api)

	w := serve(r, http.MethodGet, "/school/orders/42/quotations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/school/quotations/5/select", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/school/quotations/payment", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var redirect struct {
		URL   string `json:"url"`
		Total int64  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &redirect))
	assert.Equal(t, "https://pay.example.com/checkout", redirect.URL)
	assert.Equal(t, int64(5_100_000), redirect.Total)
	assert.Equal(t, int64(5_100_000), api.lastPayment.Amount)

	w = serve(r, http.MethodGet, "/school/payment/result?orderType=order&quotationId=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Контекст оплаты читается один раз.
	w = serve(r, http.MethodGet, "/school/payment/result?orderType=order&quotationId=5", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchoolHandler_PaymentResult_BadQuery(t *testing.T) {
	r := newRouter(&stubBackend{})

	w := serve(r, http.MethodGet, "/school/payment/result?orderType=design&quotationId=5", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/school/payment/result?quotationId=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "quotationId", decode(t, w).Error.Field)
}

func TestHealthHandler_WithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", NewHealthHandler(nil).Health)

	w := serve(r, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Checks["database"])
}
