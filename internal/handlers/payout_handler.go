package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"payshield-service/internal/services"
	"payshield-service/pkg/common"
)

// PayoutHandler exposes the operator-facing payout endpoints.
type PayoutHandler struct {
	Payouts   *services.PayoutService
	Lifecycle *services.PayoutLifecycleService
}

func NewPayoutHandler(payouts *services.PayoutService, lifecycle *services.PayoutLifecycleService) *PayoutHandler {
	return &PayoutHandler{Payouts: payouts, Lifecycle: lifecycle}
}

// actorId reads the acting operator from the X-Actor-Id header set by the
// auth layer in front of this service. Nil means system-initiated.
func actorId(c *gin.Context) *int {
	raw := c.GetHeader("X-Actor-Id")
	if raw == "" {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &id
}

func payoutId(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid payout id", nil, http.StatusBadRequest))
		return 0, false
	}
	return uint(id), true
}

func (h *PayoutHandler) RunBatch(c *gin.Context) {
	result, err := h.Payouts.RunBatch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(result, "Aggregation run completed"))
}

func (h *PayoutHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, total, err := h.Payouts.ListPayouts(services.ListPayoutsDTO{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.PaginateResponse(rows, total, page, limit, ""))
}

func (h *PayoutHandler) Get(c *gin.Context) {
	id, ok := payoutId(c)
	if !ok {
		return
	}
	payout, trxs, err := h.Payouts.GetPayout(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, common.NewErrorResponse("Payout not found", nil, http.StatusNotFound))
			return
		}
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"payout":       payout,
		"transactions": trxs,
	}, "success"))
}

func (h *PayoutHandler) Approve(c *gin.Context) {
	id, ok := payoutId(c)
	if !ok {
		return
	}
	payout, err := h.Lifecycle.Approve(id, actorId(c))
	h.respond(c, payout, err, "Payout approved")
}

func (h *PayoutHandler) Process(c *gin.Context) {
	id, ok := payoutId(c)
	if !ok {
		return
	}
	payout, err := h.Lifecycle.Process(id, actorId(c))
	h.respond(c, payout, err, "Payout processing")
}

func (h *PayoutHandler) Retry(c *gin.Context) {
	id, ok := payoutId(c)
	if !ok {
		return
	}
	payout, err := h.Lifecycle.Retry(id, actorId(c))
	h.respond(c, payout, err, "Payout queued for retry")
}

type completePayoutRequest struct {
	Reference string `json:"reference" binding:"required"`
}

func (h *PayoutHandler) Complete(c *gin.Context) {
	id, ok := payoutId(c)
	if !ok {
		return
	}
	var req completePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	actor := actorId(c)
	if actor == nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Manual completion requires an operator identity", nil, http.StatusBadRequest))
		return
	}
	payout, err := h.Lifecycle.Complete(id, req.Reference, actor)
	h.respond(c, payout, err, "Payout completed manually")
}

func (h *PayoutHandler) respond(c *gin.Context, payout interface{}, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, common.NewErrorResponse("Payout is not in a valid state for this action", nil, http.StatusConflict))
	case err != nil:
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
	default:
		c.JSON(http.StatusOK, common.NewSuccessResponse(payout, message))
	}
}
