package router

import (
	"time"

	"boutique/internal/config"
	"boutique/internal/handler"
	"boutique/internal/infra"
	"boutique/internal/middleware"
	"boutique/internal/realtime"
	"boutique/internal/repository"
	"boutique/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-owned resources the routes are built on.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Queue    service.JobQueue
	Hub      *realtime.Hub
	MailCB   *infra.CircuitBreaker
	Calendar service.Calendar
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter("api", 1000, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	txm := repository.NewTransactionManager(d.DB)
	sessionRepo := repository.NewCashSessionRepository(d.DB)
	variantRepo := repository.NewVariantRepository(d.DB)
	movementRepo := repository.NewStockMovementRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	cartRepo := repository.NewCartRepository(d.DB)
	couponRepo := repository.NewCouponRepository(d.DB)
	payableRepo := repository.NewPayableRepository(d.DB)
	receivableRepo := repository.NewReceivableRepository(d.DB)
	closingRepo := repository.NewClosingRepository(d.DB)
	auditRepo := repository.NewAuditRepository(d.DB)

	// ── Collaborators ────────────────────────────────────────────────────────
	auditor := service.NewAuditor(d.Queue)
	notifier := service.NewNotifier(d.Queue, d.Hub, cfg.FinanceRecipients())
	cal := d.Calendar

	// ── Services ─────────────────────────────────────────────────────────────
	stockSvc := service.NewStockService(txm, variantRepo, movementRepo, cal)
	orderSvc := service.NewOrderService(txm, orderRepo, cartRepo, variantRepo, couponRepo, stockSvc, auditor, notifier, cal, cfg.CouponStrict)
	cartSvc := service.NewCartService(cartRepo, variantRepo)
	cashSvc := service.NewCashSessionService(txm, sessionRepo, auditor, notifier, cal)
	reconSvc := service.NewReconciliationService(txm, sessionRepo, payableRepo, receivableRepo, auditor, notifier, cal, cfg.PayableDueWindowDays)
	payableSvc := service.NewAccountService(txm, payableRepo, auditor, notifier, cal)
	receivableSvc := service.NewAccountService(txm, receivableRepo, auditor, notifier, cal)
	closingSvc := service.NewClosingService(txm, closingRepo, sessionRepo, payableRepo, receivableRepo, auditor, notifier, cal, cfg.ReportStoragePath)
	auditSvc := service.NewAuditService(auditRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cashH := handler.NewCashHandler(cashSvc, cal)
	reconH := handler.NewReconciliationHandler(reconSvc, cal)
	payablesH := handler.NewAccountHandler(payableSvc)
	receivablesH := handler.NewAccountHandler(receivableSvc)
	closingsH := handler.NewClosingHandler(closingSvc)
	ordersH := handler.NewOrdersHandler(orderSvc, cal)
	cartH := handler.NewCartHandler(cartSvc)
	stockH := handler.NewStockHandler(stockSvc, cal)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.MailCB))
	r.GET("/ws", handler.Websocket(d.Hub, cfg.JWTSecret, cfg.AllowedOrigins()))

	staff := middleware.RequireRole(middleware.RoleOperator, middleware.RoleFinance)
	finance := middleware.RequireRole(middleware.RoleFinance)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		cash := v1.Group("/cash", staff)
		{
			cash.POST("/sessions", cashH.OpenSession)
			cash.GET("/sessions", cashH.ListSessions)
			cash.GET("/sessions/current", cashH.CurrentSession)
			cash.GET("/sessions/:id", cashH.GetSession)
			cash.POST("/sessions/:id/close", cashH.CloseSession)

			cash.POST("/entries", cashH.CreateEntry)
			cash.GET("/entries", cashH.ListEntries)
			cash.GET("/entries/summary", cashH.EntrySummary)
			cash.PUT("/entries/:id", cashH.UpdateEntry)
			cash.DELETE("/entries/:id", cashH.DeleteEntry)
		}

		fin := v1.Group("/finance", finance)
		{
			fin.GET("/sessions/pending", reconH.ListPending)
			fin.GET("/sessions/:id/review", reconH.Review)
			fin.POST("/sessions/:id/approve", reconH.Approve)
			fin.POST("/sessions/:id/reject", reconH.Reject)
			fin.GET("/dashboard", reconH.Dashboard)

			accountRoutes(fin.Group("/payables"), payablesH)
			accountRoutes(fin.Group("/receivables"), receivablesH)

			closings := fin.Group("/closings")
			{
				closings.POST("", middleware.RateLimiter("closings", 30, time.Minute), closingsH.Generate)
				closings.GET("", closingsH.List)
				closings.GET("/:id", closingsH.Get)
				closings.POST("/:id/cancel", closingsH.Cancel)
				closings.GET("/:id/export.xlsx", closingsH.ExportXLSX)
				closings.GET("/:id/export.pdf", closingsH.ExportPDF)
			}
		}

		orders := v1.Group("/orders", staff)
		{
			orders.POST("", ordersH.Commit)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id/status", ordersH.UpdateStatus)
			orders.PATCH("/:id/payment-status", ordersH.UpdatePaymentStatus)
			orders.PATCH("/:id/tracking", ordersH.UpdateTracking)
		}
		v1.POST("/coupons/validate", staff, ordersH.ValidateCoupon)

		carts := v1.Group("/carts/:customer_id", staff)
		{
			carts.GET("", cartH.Get)
			carts.POST("/items", cartH.AddItem)
			carts.PATCH("/items/:variant_id", cartH.UpdateItem)
			carts.DELETE("/items/:variant_id", cartH.RemoveItem)
			carts.DELETE("", cartH.Clear)
		}

		stock := v1.Group("/stock", staff)
		{
			stock.POST("/movements", stockH.RecordMovement)
			stock.GET("/movements", stockH.ListMovements)
			stock.GET("/alerts", stockH.Alerts)
			stock.GET("/summary", stockH.Summary)
		}

		v1.GET("/audit", finance, auditH.List)
	}

	// Swagger UI outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func accountRoutes(g *gin.RouterGroup, h *handler.AccountHandler) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/settle", h.Settle)
	g.POST("/:id/cancel", h.Cancel)
}
