package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/services/badge"
	"campusgrill-loyalty/services/challenge"
	"campusgrill-loyalty/services/coupon"
	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/orchestrator"
	"campusgrill-loyalty/services/order"
	"campusgrill-loyalty/services/tier"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Handler struct {
	members      *member.Service
	orders       *order.Service
	ledger       *ledger.Service
	tiers        *tier.Service
	badges       *badge.Service
	challenges   *challenge.Service
	coupons      *coupon.Service
	orchestrator *orchestrator.Service
}

type HandlerParams struct {
	fx.In
	Members      *member.Service
	Orders       *order.Service
	Ledger       *ledger.Service
	Tiers        *tier.Service
	Badges       *badge.Service
	Challenges   *challenge.Service
	Coupons      *coupon.Service
	Orchestrator *orchestrator.Service
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		members:      p.Members,
		orders:       p.Orders,
		ledger:       p.Ledger,
		tiers:        p.Tiers,
		badges:       p.Badges,
		challenges:   p.Challenges,
		coupons:      p.Coupons,
		orchestrator: p.Orchestrator,
	}
}

type registerMemberRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) registerMember(c *gin.Context) {
	var req registerMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest(err.Error()))
		return
	}

	m, err := h.members.Register(c.Request.Context(), req.Email, req.DisplayName)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) memberBalance(c *gin.Context) {
	balance, err := h.ledger.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member_id": c.Param("id"), "balance": balance})
}

func (h *Handler) memberTier(c *gin.Context) {
	current, err := h.tiers.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"member_id":  c.Param("id"),
		"tier":       current,
		"multiplier": current.Multiplier(),
	})
}

func (h *Handler) memberTransactions(c *gin.Context) {
	entries, err := h.ledger.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

func (h *Handler) memberBadges(c *gin.Context) {
	grants, err := h.badges.MemberBadges(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": grants})
}

func (h *Handler) memberCoupons(c *gin.Context) {
	coupons, err := h.coupons.ForMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (h *Handler) memberRedemptions(c *gin.Context) {
	history, err := h.ledger.RedemptionHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": history})
}

type redeemRequest struct {
	RewardType string  `json:"reward_type" binding:"required"`
	OrderID    *string `json:"order_id"`
}

func (h *Handler) redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest(err.Error()))
		return
	}

	code, err := h.ledger.Redeem(c.Request.Context(), coupon.RewardType(req.RewardType), c.Param("id"), req.OrderID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coupon_code": code})
}

func (h *Handler) rewardCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rewards": coupon.Costs})
}

func (h *Handler) dailyBonuses(c *gin.Context) {
	bonuses, err := h.challenges.TodayBonuses(c.Request.Context(), time.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_bonuses": bonuses})
}

func (h *Handler) weeklyChallenges(c *gin.Context) {
	challenges, err := h.challenges.CurrentWeekly(c.Request.Context(), time.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weekly_challenges": challenges})
}

type couponRequest struct {
	Code     string  `json:"code" binding:"required"`
	MemberID string  `json:"member_id" binding:"required"`
	OrderID  *string `json:"order_id"`
}

func (h *Handler) validateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest(err.Error()))
		return
	}

	cp, err := h.coupons.Validate(c.Request.Context(), req.Code, req.MemberID, req.OrderID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":        cp.Code,
		"reward_type": cp.RewardType,
		"state":       cp.State(),
		"expiry_date": cp.ExpiryDate,
	})
}

func (h *Handler) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest(err.Error()))
		return
	}
	if req.OrderID == nil {
		_ = c.Error(errutil.BadRequest("order_id is required"))
		return
	}

	ord, err := h.orders.Get(c.Request.Context(), *req.OrderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.coupons.Apply(c.Request.Context(), req.Code, req.MemberID, ord)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// orderPaid is the synchronous twin of the loyalty:order_paid task, for
// collaborators that call over HTTP instead of the queue.
func (h *Handler) orderPaid(c *gin.Context) {
	var payload orchestrator.OrderPaidPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		_ = c.Error(errutil.BadRequest(err.Error()))
		return
	}

	result, err := h.orchestrator.ProcessOrderPaid(c.Request.Context(), payload.ToOrder())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) monthlyLeaderboard(c *gin.Context) {
	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())
	if v, err := strconv.Atoi(c.Query("year")); err == nil {
		year = v
	}
	if v, err := strconv.Atoi(c.Query("month")); err == nil && v >= 1 && v <= 12 {
		month = v
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.ledger.MonthlyLeaderboard(c.Request.Context(), time.Month(month), year, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "leaderboard": entries})
}
