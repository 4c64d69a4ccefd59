package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/middleware"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Guard   *service.Guard
	Auth    *service.AuthService
	Family  *service.FamilyService
	Ledger  *service.LedgerService
	Rewards *service.RewardService
	Alerts  *service.AlertService
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	guard   *service.Guard
	auth    *service.AuthService
	family  *service.FamilyService
	ledger  *service.LedgerService
	rewards *service.RewardService
	alerts  *service.AlertService
	checks  map[string]HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services Services, checks map[string]HealthCheck) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		guard:   services.Guard,
		auth:    services.Auth,
		family:  services.Family,
		ledger:  services.Ledger,
		rewards: services.Rewards,
		alerts:  services.Alerts,
		checks:  checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterAccount)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	authed := v1.Group("")
	authed.Use(middleware.Auth(h.guard))
	authed.GET("/auth/me", h.Me)
	authed.GET("/accounts", h.LookupAccountByUsername)
	authed.GET("/accounts/:accountId", h.LookupAccount)
	authed.GET("/lessons", h.ListLessons)
	authed.GET("/lessons/:lessonId", h.GetLesson)

	parents := authed.Group("")
	parents.Use(middleware.RequireRoles(models.RoleParent))
	parents.POST("/children", h.CreateChild)
	parents.GET("/children", h.ListChildren)
	parents.GET("/family/settings", h.GetSettings)
	parents.PUT("/family/settings", h.UpdateSettings)
	parents.GET("/alerts", h.ListAlerts)
	parents.POST("/alerts/:alertId/action", h.ActOnAlert)

	child := authed.Group("/children/:childId")
	child.GET("/ledger", middleware.RequireChildAccess(h.guard, service.ParentOrSelf), h.GetLedger)
	child.POST("/ledger/usage", middleware.RequireChildAccess(h.guard, service.ParentOrSelf), h.RecordUsage)
	child.POST("/ledger/adjust", middleware.RequireChildAccess(h.guard, service.ParentOnly), h.AdjustAllowed)
	child.GET("/lessons", middleware.RequireChildAccess(h.guard, service.ParentOrSelf), h.ChildProgress)
	child.GET("/dashboard", middleware.RequireChildAccess(h.guard, service.ParentOrSelf), h.Dashboard)

	learners := authed.Group("/lessons/:lessonId")
	learners.Use(middleware.RequireRoles(models.RoleChild))
	learners.POST("/start", h.StartLesson)
	learners.POST("/complete", h.CompleteLesson)
}

// bindJSON decodes the body into req and aborts with a validation error on
// failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.AbortWithError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func caller(c *gin.Context) (models.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Unauthenticated("missing bearer token"))
	}
	return account, ok
}

func targetChild(c *gin.Context) (models.Account, bool) {
	child, ok := middleware.TargetChild(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Forbidden("not allowed to access this child"))
	}
	return child, ok
}

func respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(status, body)
}
