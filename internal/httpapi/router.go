package httpapi

import (
	"net/http"

	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/pkg/health"
	"campusgrill-loyalty/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewHandler,
		ProvideRouter,
	),
)

// ProvideRouter builds the gin engine and mounts every route.
func ProvideRouter(cfg *config.Config, h *Handler, hc health.HealthService) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/livez", hc.Liveness)
	r.GET("/readyz", hc.Readiness)

	v1 := r.Group("/v1")
	{
		v1.POST("/members", h.registerMember)
		v1.GET("/members/:id/balance", h.memberBalance)
		v1.GET("/members/:id/tier", h.memberTier)
		v1.GET("/members/:id/transactions", h.memberTransactions)
		v1.GET("/members/:id/badges", h.memberBadges)
		v1.GET("/members/:id/coupons", h.memberCoupons)
		v1.GET("/members/:id/redemptions", h.memberRedemptions)
		v1.POST("/members/:id/redeem", h.redeem)

		v1.GET("/rewards", h.rewardCatalog)
		v1.GET("/challenges/daily", h.dailyBonuses)
		v1.GET("/challenges/weekly", h.weeklyChallenges)

		v1.POST("/coupons/validate", h.validateCoupon)
		v1.POST("/coupons/apply", h.applyCoupon)

		v1.POST("/orders/paid", h.orderPaid)

		v1.GET("/leaderboard/monthly", h.monthlyLeaderboard)
	}

	return r
}
