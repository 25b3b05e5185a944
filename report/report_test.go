package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timecard-engine/payroll"
	"github.com/warp/timecard-engine/report"
	"github.com/warp/timecard-engine/timecard"
	"github.com/xuri/excelize/v2"
)

func settings() *timecard.Settings {
	return &timecard.Settings{
		BaseSalary:        decimal.NewFromInt(2200),
		MonthlyHours:      decimal.NewFromInt(220),
		DailyJourneyHours: 8,
		WeeklyCapHours:    10,
		NightCutoff:       "22:00",
		Pct50:             decimal.NewFromInt(50),
		Pct100:            decimal.NewFromInt(100),
		PctNight:          decimal.NewFromInt(20),
		CycleStartDay:     1,
	}
}

// =============================================================================
// FORMAT
// =============================================================================

func TestMoney_BrazilianSeparators(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", report.Money(decimal.RequireFromString("1234.555")))
	assert.Equal(t, "R$ 0,00", report.Money(decimal.Zero))
	assert.Equal(t, "R$ -12,50", report.Money(decimal.RequireFromString("-12.5")))
	assert.Equal(t, "R$ 1.000.000,10", report.Money(decimal.RequireFromString("1000000.10")))
	// beyond float64 precision
	assert.Equal(t, "R$ 90.071.992.547.409,93", report.Money(decimal.RequireFromString("90071992547409.93")))
}

func TestHoursAndDates(t *testing.T) {
	assert.Equal(t, "2:05", report.Hours(125))
	assert.Equal(t, "-0:45", report.Hours(-45))
	assert.Equal(t, "02/03/2026", report.Date(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", report.Date(time.Time{}))
	assert.Equal(t, "seg", report.Weekday(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)))
}

// =============================================================================
// PDF
// =============================================================================

func TestSettlementPDF(t *testing.T) {
	st, err := payroll.Settle(payroll.Params{
		Settings: settings(),
		Month:    time.March,
		Year:     2026,
		Totals:   timecard.Buckets{Tier50: 600, Lateness: 120},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = report.SettlementPDF(&buf, report.Header{EmployeeID: "emp-1", EmployeeName: "João da Silva", GeneratedAt: time.Now()}, st)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	assert.Error(t, report.SettlementPDF(&buf, report.Header{}, nil))
}

// =============================================================================
// WORKBOOK
// =============================================================================

func TestCardWorkbook(t *testing.T) {
	normal := timecard.NewCard(timecard.CardNormal, time.March, 2026, 0)
	mon := normal.Line(2)
	mon.Entry1, mon.Exit1, mon.Entry2, mon.Exit2 = "08:00", "12:00", "13:00", "17:00"

	overtime := timecard.NewCard(timecard.CardOvertime, time.March, 2026, 0)
	overtime.Line(2).Entry1, overtime.Line(2).Exit1 = "17:00", "19:00"

	var buf bytes.Buffer
	require.NoError(t, report.CardWorkbook(&buf, report.Cards{Normal: &normal, Overtime: &overtime}, settings()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetNormal, report.SheetOvertime, report.SheetWeeks}, f.GetSheetList())

	rows, err := f.GetRows(report.SheetNormal)
	require.NoError(t, err)
	require.Len(t, rows, 32) // header + 31 dated lines
	assert.Equal(t, "Linha", rows[0][0])
	assert.Equal(t, []string{"2", "02/03/2026", "seg", "08:00", "12:00", "13:00", "17:00"}, rows[2][:7])

	rows, err = f.GetRows(report.SheetOvertime)
	require.NoError(t, err)
	assert.Equal(t, "120", rows[2][11]) // overtime minutes
	assert.Equal(t, "120", rows[2][12]) // 50 %
	assert.Equal(t, "2026-03-W2", rows[2][18])

	rows, err = f.GetRows(report.SheetWeeks)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, "Total", last[0])
	assert.Equal(t, "120", last[3])
}

func TestCardWorkbook_MissingCardAndSettings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.CardWorkbook(&buf, report.Cards{}, settings()))

	err := report.CardWorkbook(&buf, report.Cards{}, nil)
	assert.ErrorIs(t, err, timecard.ErrSettingsRequired)
}
