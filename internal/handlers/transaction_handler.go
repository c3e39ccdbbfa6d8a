package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"payshield-service/internal/services"
	"payshield-service/pkg/common"
)

type TransactionHandler struct {
	Transactions *services.TransactionService
}

func NewTransactionHandler(transactions *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{Transactions: transactions}
}

func (h *TransactionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	payeeId, _ := strconv.Atoi(c.Query("payeeId"))

	rows, total, err := h.Transactions.ListTransactions(services.ListTransactionsDTO{
		Status:    c.Query("status"),
		Provider:  c.Query("provider"),
		PayeeType: c.Query("payeeType"),
		PayeeId:   payeeId,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.PaginateResponse(rows, total, page, limit, ""))
}
