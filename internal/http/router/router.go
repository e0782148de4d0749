package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/config"
	"github.com/ignatzorin/uniform-portal/internal/http/handlers"
	"github.com/ignatzorin/uniform-portal/internal/http/middleware"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/session"
)

// maxMultipartMemory часть multipart формы, которая держится в памяти; остальное уходит во временные файлы.
const maxMultipartMemory = 32 << 20

func SetupRouter(
	cfg *config.Config,
	sessions *session.Manager,
	adminHandler *handlers.AdminHandler,
	designerHandler *handlers.DesignerHandler,
	schoolHandler *handlers.SchoolHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	// WebSocket проверяет токен из query: браузер не передаёт заголовки при upgrade.
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("")
	protected.Use(middleware.SessionMiddleware(sessions, cfg.LoginPath))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/reports", adminHandler.ListReports)
		admin.POST("/reports/:id/approval", middleware.IDValidator("id"), adminHandler.OpenApproval)
		admin.PATCH("/reports/approval", adminHandler.UpdateApproval)
		admin.POST("/reports/approval/submit", adminHandler.SubmitApproval)
		admin.DELETE("/reports/approval", adminHandler.CloseApproval)
	}

	designer := protected.Group("/designer")
	designer.Use(middleware.RequireRole(models.RoleDesigner))
	{
		designer.GET("/feedback", designerHandler.ListFeedback)
		designer.POST("/reports/:id/evidence", middleware.IDValidator("id"), designerHandler.OpenEvidence)
		designer.PATCH("/evidence", designerHandler.UpdateEvidence)
		designer.POST("/evidence/images", designerHandler.UploadImages)
		designer.POST("/evidence/video", designerHandler.UploadVideo)
		designer.POST("/evidence/submit", designerHandler.SubmitEvidence)
		designer.DELETE("/evidence", designerHandler.CloseEvidence)
	}

	school := protected.Group("/school")
	school.Use(middleware.RequireRole(models.RoleSchool))
	{
		school.GET("/orders/:id/quotations", middleware.IDValidator("id"), schoolHandler.ListQuotations)
		school.POST("/quotations/:id/select", middleware.IDValidator("id"), schoolHandler.SelectQuotation)
		school.DELETE("/quotations/summary", schoolHandler.CloseSummary)
		school.POST("/quotations/payment", schoolHandler.ProceedToPayment)
		school.GET("/payment/result", schoolHandler.PaymentResult)
	}

	return r
}
