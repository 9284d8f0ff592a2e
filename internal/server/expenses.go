package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/utils"
)

const (
	maxTitleLen       = 200
	maxCategoryLen    = 50
	maxDescriptionLen = 1000
)

func (s *Server) listExpenses(c *gin.Context) {
	list, err := s.expenses.ListExpenses(c.Request.Context(), nil, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponses(list))
}

func (s *Server) createExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, common.FromBindingError(err))
		return
	}

	v := common.NewValidator().
		Field("title", req.Title, common.Required, common.MaxLength(maxTitleLen)).
		Field("amount", req.Amount, common.Required, common.NonNegative, common.AtMost(constants.MaxAmount)).
		Field("category", req.Category, common.MaxLength(maxCategoryLen)).
		Field("description", req.Description, common.MaxLength(maxDescriptionLen))
	if err := v.Err(); err != nil {
		s.fail(c, err)
		return
	}

	e := &entity.Expense{
		Title:       strings.TrimSpace(req.Title),
		Amount:      *req.Amount,
		Category:    manualCategory(req.Category),
	}
	if req.Description != nil {
		e.Description = utils.StrPtrOrNil(*req.Description)
	}
	if d := strings.TrimSpace(req.Date); d != "" {
		date, err := utils.ParseDate(d)
		if err != nil {
			s.fail(c, common.NewValidationError("date "+err.Error()))
			return
		}
		e.Date = date
	}

	created, err := s.expenses.CreateExpense(c.Request.Context(), e)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) deleteExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.fail(c, common.NewAppError("INVALID_ID", "id must be a valid UUID", common.ErrInvalidInput))
		return
	}
	if err := s.expenses.DeleteExpense(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}

// manualCategory keeps free-form labels, folding known ones onto their canonical spelling.
func manualCategory(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return string(constants.Other)
	}
	if c, ok := constants.Canonicalize(in); ok {
		return string(c)
	}
	return in
}

// fail writes {message} with the status mapped from err.
func (s *Server) fail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	log := common.LoggerFromContext(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("http.handler_error", zap.Error(err))
	} else {
		log.Debug("http.client_error", zap.Int("status", status), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, messageResponse{Message: common.PublicMessage(err)})
}
