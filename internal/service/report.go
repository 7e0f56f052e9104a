package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bitwise74/finance-api/internal/model"

	"gorm.io/gorm"
)

// trendMonths is how many growth points SixMonthTrend emits
const trendMonths = 6

type Summary struct {
	NetBalance     float64 `json:"netBalance"`
	MonthlyIncome  float64 `json:"monthlyIncome"`
	IncomeTrend    float64 `json:"incomeTrend"`
	MonthlyExpense float64 `json:"monthlyExpense"`
	ExpenseTrend   float64 `json:"expenseTrend"`
	MonthName      string  `json:"monthName"`
}

// TrendPoint holds month over month growth in percent
type TrendPoint struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Reports aggregates a caller's ledgers. Months are anchored on the latest
// dated record instead of the wall clock, Now is only the fallback for
// users without records.
type Reports struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewReports(db *gorm.DB) *Reports {
	return &Reports{DB: db, Now: time.Now}
}

// Trend is the percent change from prev to curr. Growth from nothing is
// reported as 100.
func Trend(curr, prev float64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}

		return 100
	}

	return (curr - prev) / math.Abs(prev) * 100
}

func (s *Reports) Summary(ctx context.Context, caller Caller) (*Summary, error) {
	db := s.DB.WithContext(ctx)

	latest, err := s.latestMonth(db, caller.UserID)
	if err != nil {
		return nil, err
	}

	totalIncome, err := sum(db.Model(&model.Revenue{}).Where("user_id = ?", caller.UserID))
	if err != nil {
		return nil, err
	}

	totalExpense, err := sum(db.Model(&model.Expense{}).Where("user_id = ?", caller.UserID))
	if err != nil {
		return nil, err
	}

	income, expense, err := s.monthTotals(db, caller.UserID, latest)
	if err != nil {
		return nil, err
	}

	prevIncome, prevExpense, err := s.monthTotals(db, caller.UserID, latest.AddMonths(-1))
	if err != nil {
		return nil, err
	}

	return &Summary{
		NetBalance:     totalIncome - totalExpense,
		MonthlyIncome:  income,
		IncomeTrend:    Trend(income, prevIncome),
		MonthlyExpense: expense,
		ExpenseTrend:   Trend(expense, prevExpense),
		MonthName:      latest.Format("Jan"),
	}, nil
}

// SixMonthTrend totals the 7 months ending at the latest data month and
// emits the growth of the last 6 against their predecessor
func (s *Reports) SixMonthTrend(ctx context.Context, caller Caller) ([]TrendPoint, error) {
	db := s.DB.WithContext(ctx)

	latest, err := s.latestMonth(db, caller.UserID)
	if err != nil {
		return nil, err
	}

	var incomes, expenses [trendMonths + 1]float64
	var months [trendMonths + 1]model.Date

	for i := range months {
		months[i] = latest.AddMonths(i - trendMonths)

		incomes[i], expenses[i], err = s.monthTotals(db, caller.UserID, months[i])
		if err != nil {
			return nil, err
		}
	}

	points := make([]TrendPoint, 0, trendMonths)
	for i := 1; i <= trendMonths; i++ {
		points = append(points, TrendPoint{
			Month:   months[i].Format("Jan"),
			Income:  Trend(incomes[i], incomes[i-1]),
			Expense: Trend(expenses[i], expenses[i-1]),
		})
	}

	return points, nil
}

// CategoryBreakdown sums every expense of the caller by category
func (s *Reports) CategoryBreakdown(ctx context.Context, caller Caller) (map[string]float64, error) {
	var rows []struct {
		Category string
		Total    float64
	}

	err := s.DB.WithContext(ctx).
		Model(&model.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", caller.UserID).
		Group("category").
		Scan(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to group expenses, %w", err)
	}

	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Total
	}

	return out, nil
}

// latestMonth returns the first day of the month holding the caller's most
// recent expense or revenue
func (s *Reports) latestMonth(db *gorm.DB, userID string) (model.Date, error) {
	latest := model.DateOf(s.Now())
	var found bool

	for _, m := range []any{&model.Expense{}, &model.Revenue{}} {
		var entry model.Entry

		err := db.Model(m).
			Select("date").
			Where("user_id = ?", userID).
			Order("date desc").
			Limit(1).
			Take(&entry).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return model.Date{}, fmt.Errorf("failed to find latest record, %w", err)
		}

		if !found || entry.Date.After(latest) {
			latest = entry.Date
			found = true
		}
	}

	return latest.MonthStart(), nil
}

func (s *Reports) monthTotals(db *gorm.DB, userID string, month model.Date) (income, expense float64, err error) {
	start, end := month.MonthStart(), month.MonthEnd()

	income, err = sum(db.Model(&model.Revenue{}).Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end))
	if err != nil {
		return 0, 0, err
	}

	expense, err = sum(db.Model(&model.Expense{}).Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end))
	if err != nil {
		return 0, 0, err
	}

	return income, expense, nil
}

func sum(q *gorm.DB) (float64, error) {
	var total float64

	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum amounts, %w", err)
	}

	return total, nil
}
