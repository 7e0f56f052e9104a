package service

import (
	"context"
	"testing"
	"time"

	"bitwise74/finance-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTrend(t *testing.T) {
	assert.Equal(t, 0.0, Trend(0, 0))
	assert.Equal(t, 100.0, Trend(42, 0))
	assert.Equal(t, 100.0, Trend(-5, 0))
	assert.InDelta(t, 10.0, Trend(110, 100), 1e-9)
	assert.InDelta(t, -10.0, Trend(90, 100), 1e-9)
	assert.InDelta(t, 50.0, Trend(-50, -100), 1e-9)
	assert.InDelta(t, -100.0, Trend(0, 100), 1e-9)
}

type fixture struct {
	db       *gorm.DB
	reports  *Reports
	expenses *Ledger[model.Expense, *model.Expense]
	revenues *Ledger[model.Revenue, *model.Revenue]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := newTestDB(t)
	r := NewReports(conn)
	r.Now = func() time.Time { return testNow }

	return &fixture{
		db:       conn,
		reports:  r,
		expenses: NewLedger[model.Expense](conn),
		revenues: NewLedger[model.Revenue](conn),
	}
}

func (f *fixture) spend(t *testing.T, c Caller, amount float64, d model.Date, category string) {
	t.Helper()
	_, err := f.expenses.Create(context.Background(), c, expense(amount, d, category))
	require.NoError(t, err)
}

func (f *fixture) earn(t *testing.T, c Caller, amount float64, d model.Date) {
	t.Helper()
	_, err := f.revenues.Create(context.Background(), c, revenue(amount, d, "Salary"))
	require.NoError(t, err)
}

func TestSummaryMayJune(t *testing.T) {
	f := newFixture(t)
	f.spend(t, alice, 100, date(2024, time.May, 10), "Food")
	f.spend(t, alice, 150, date(2024, time.June, 5), "Food")

	// Someone else's data never leaks in
	f.earn(t, bob, 1000, date(2024, time.July, 1))

	s, err := f.reports.Summary(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, 150.0, s.MonthlyExpense)
	assert.InDelta(t, 50.0, s.ExpenseTrend, 1e-9)
	assert.Equal(t, -250.0, s.NetBalance)
	assert.Equal(t, 0.0, s.MonthlyIncome)
	assert.Equal(t, 0.0, s.IncomeTrend)
	assert.Equal(t, "Jun", s.MonthName)
}

func TestSummaryAnchorsOnLatestRecord(t *testing.T) {
	f := newFixture(t)
	f.spend(t, alice, 40, date(2023, time.December, 31), "Food")
	f.earn(t, alice, 200, date(2024, time.January, 15))
	f.earn(t, alice, 100, date(2023, time.December, 1))

	s, err := f.reports.Summary(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, "Jan", s.MonthName)
	assert.Equal(t, 200.0, s.MonthlyIncome)
	assert.InDelta(t, 100.0, s.IncomeTrend, 1e-9)
	assert.Equal(t, 0.0, s.MonthlyExpense)
	assert.InDelta(t, -100.0, s.ExpenseTrend, 1e-9)
	assert.Equal(t, 260.0, s.NetBalance)
}

func TestSummaryWithoutRecords(t *testing.T) {
	f := newFixture(t)

	s, err := f.reports.Summary(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, "Jun", s.MonthName)
	assert.Zero(t, s.NetBalance)
	assert.Zero(t, s.IncomeTrend)
	assert.Zero(t, s.ExpenseTrend)
}

func TestSixMonthTrend(t *testing.T) {
	f := newFixture(t)
	f.earn(t, alice, 100, date(2024, time.January, 5))
	f.earn(t, alice, 110, date(2024, time.February, 5))
	f.earn(t, alice, 55, date(2024, time.March, 5))
	f.spend(t, alice, 20, date(2024, time.June, 30), "Rent")

	points, err := f.reports.SixMonthTrend(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, points, 6)

	months := make([]string, len(points))
	for i, p := range points {
		months[i] = p.Month
	}
	assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}, months)

	assert.InDelta(t, 100.0, points[0].Income, 1e-9)
	assert.InDelta(t, 10.0, points[1].Income, 1e-9)
	assert.InDelta(t, -50.0, points[2].Income, 1e-9)
	assert.InDelta(t, -100.0, points[3].Income, 1e-9)
	assert.Equal(t, 0.0, points[4].Income)

	assert.Equal(t, 0.0, points[4].Expense)
	assert.Equal(t, 100.0, points[5].Expense)
}

func TestSixMonthTrendCrossesYear(t *testing.T) {
	f := newFixture(t)
	f.spend(t, alice, 10, date(2025, time.February, 1), "Food")

	points, err := f.reports.SixMonthTrend(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, points, 6)

	assert.Equal(t, "Sep", points[0].Month)
	assert.Equal(t, "Feb", points[5].Month)
}

func TestCategoryBreakdown(t *testing.T) {
	f := newFixture(t)
	f.spend(t, alice, 10, date(2020, time.January, 1), "Food")
	f.spend(t, alice, 15.5, date(2024, time.June, 1), "Food")
	f.spend(t, alice, 700, date(2024, time.June, 2), "Rent")
	f.spend(t, bob, 99, date(2024, time.June, 2), "Games")

	b, err := f.reports.CategoryBreakdown(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Food": 25.5, "Rent": 700}, b)

	empty, err := f.reports.CategoryBreakdown(context.Background(), Caller{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
