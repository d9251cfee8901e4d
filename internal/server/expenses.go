package server

import (
	"net/http"
	"strings"
	"time"

	expensedomain "github.com/dentaops/denta/internal/expense/domain"
	"github.com/gin-gonic/gin"
)

type createExpenseBody struct {
	Category    string     `json:"category"`
	Amount      int64      `json:"amount"`
	Description *string    `json:"description"`
	IncurredAt  *time.Time `json:"incurred_at"`
}

func (s *Server) CreateExpense(c *gin.Context) {
	var body createExpenseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.expenseSvc.Create(c.Request.Context(), expensedomain.CreateExpenseRequest{
		Category:    body.Category,
		Amount:      body.Amount,
		Description: body.Description,
		IncurredAt:  body.IncurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": created})
}

func (s *Server) ListExpenses(c *gin.Context) {
	start, ok := optionalTime(c.Query("start"))
	if !ok {
		AbortWithError(c, newValidationError("start", "invalid_time", "invalid start time"))
		return
	}
	end, ok := optionalTime(c.Query("end"))
	if !ok {
		AbortWithError(c, newValidationError("end", "invalid_time", "invalid end time"))
		return
	}

	expenses, err := s.expenseSvc.List(c.Request.Context(), expensedomain.ListFilter{
		Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		StartAt:  start,
		EndAt:    end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": expenses})
}
