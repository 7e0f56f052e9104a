package api

import (
	"bitwise74/finance-api/internal/model"

	"github.com/gin-gonic/gin"
)

type expenseBody struct {
	Amount      float64     `json:"amount" binding:"required,gt=0"`
	Category    string      `json:"category" binding:"required,max=50"`
	Description string      `json:"description" binding:"required"`
	Date        *model.Date `json:"date" binding:"required"`
}

type revenueBody struct {
	Amount float64     `json:"amount" binding:"required,gt=0"`
	Source string      `json:"source" binding:"required,max=50"`
	Date   *model.Date `json:"date" binding:"required"`
}

func bindExpense(c *gin.Context) (*model.Expense, bool) {
	var data expenseBody
	if !bind(c, &data) {
		return nil, false
	}

	return &model.Expense{
		Entry:       model.Entry{Amount: data.Amount, Date: *data.Date},
		Category:    data.Category,
		Description: data.Description,
	}, true
}

func bindRevenue(c *gin.Context) (*model.Revenue, bool) {
	var data revenueBody
	if !bind(c, &data) {
		return nil, false
	}

	return &model.Revenue{
		Entry:  model.Entry{Amount: data.Amount, Date: *data.Date},
		Source: data.Source,
	}, true
}
