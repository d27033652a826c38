package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

func TestTimeframe_Range(t *testing.T) {
	wednesday := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	type testCase struct {
		name      string
		tf        Timeframe
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}

	endOf := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 23, 59, 59, 999999999, time.UTC)
	}

	tests := []testCase{
		{name: "Last7Days", tf: TimeframeLast7Days, now: wednesday, wantStart: time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 10, 14)},
		{name: "ThisWeekMidweek", tf: TimeframeThisWeek, now: wednesday, wantStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 10, 14)},
		{name: "ThisWeekSunday", tf: TimeframeThisWeek, now: sunday, wantStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 10, 18)},
		{name: "ThisMonth", tf: TimeframeThisMonth, now: wednesday, wantStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 10, 14)},
		{name: "LastMonth", tf: TimeframeLastMonth, now: wednesday, wantStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 9, 30)},
		{name: "LastMonthInJanuary", tf: TimeframeLastMonth, now: time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC), wantStart: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), wantEnd: endOf(2026, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.tf.Range(tt.now)

			assert.False(t, r.All)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, tt.wantEnd, r.End)
		})
	}

	all := TimeframeAll.Range(wednesday)
	assert.True(t, all.All)
	assert.Nil(t, all.Filter().StartDate)
	assert.Nil(t, all.Filter().EndDate)
}

func TestParseCustomRange(t *testing.T) {
	r, err := parseCustomRange("2026-01-01", " 2026-01-31 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), r.End)

	f := r.Filter()
	require.NotNil(t, f.StartDate)
	assert.Equal(t, r.Start, *f.StartDate)

	_, err = parseCustomRange("01/01/2026", "2026-01-31", time.UTC)
	assert.EqualError(t, err, "invalid start date (YYYY-MM-DD)")

	_, err = parseCustomRange("2026-02-01", "2026-01-31", time.UTC)
	assert.EqualError(t, err, "end date is before start date")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "₹1,234.50", FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "₹0.00", FormatAmount(decimal.Zero))
	assert.Equal(t, "abc", FormatRecordAmount("abc"))
}

func TestValidateAmountInput(t *testing.T) {
	type testCase struct {
		input   string
		wantErr bool
	}

	tests := []testCase{
		{input: "10", wantErr: false},
		{input: "0.5", wantErr: false},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "ten", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validateAmountInput(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManageModel_EditSubmitsOnlyChanges(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 10, 14, 15, 4, 5, 0, time.UTC) }
	orig := expense.Record{
		ID:       "e1",
		Amount:   "100",
		PayTo:    "Store A",
		Category: expense.CategoryShopping,
		Date:     time.Date(2026, 10, 10, 9, 30, 0, 0, time.UTC),
	}

	m := NewManageModel(&orig, now)
	assert.True(t, m.Editing())
	assert.Equal(t, expense.DefaultPayVia, m.fields.payVia)
	assert.True(t, m.Patch().IsEmpty())

	m.fields.category = expense.CategoryFoodDrinks

	p := m.Patch()
	require.NotNil(t, p.Category)
	assert.Equal(t, expense.CategoryFoodDrinks, *p.Category)
	assert.Nil(t, p.Amount)
	assert.Nil(t, p.PayTo)
	assert.Nil(t, p.Date)
	assert.Nil(t, p.PayVia)
}

func TestManageModel_NewRecord(t *testing.T) {
	clock := time.Date(2026, 10, 14, 15, 4, 5, 0, time.Local)
	now := func() time.Time { return clock }

	m := NewManageModel(nil, now)
	assert.False(t, m.Editing())
	assert.Equal(t, expense.CategoryFoodDrinks, m.fields.category)
	assert.Equal(t, "2026-10-14", m.fields.date)

	m.fields.amount = " 42.50 "
	m.fields.payTo = " Cafe "
	m.fields.date = "2026-10-10"

	rec := m.Record()
	assert.Equal(t, "42.50", rec.Amount)
	assert.Equal(t, "Cafe", rec.PayTo)
	assert.Equal(t, "Cash", rec.PayVia)
	assert.Equal(t, time.Date(2026, 10, 10, 15, 4, 5, 0, time.Local), rec.Date)
	assert.NoError(t, rec.Validate())
}
