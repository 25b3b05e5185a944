package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/timecard-engine/calendar"
)

func TestDSR_ZeroBusinessDays(t *testing.T) {
	assert.True(t, dsr(decimal.NewFromInt(100), calendar.DayCounts{BusinessDays: 0, RestDays: 5}).IsZero())
	assert.True(t, dsr(decimal.NewFromInt(110), calendar.DayCounts{BusinessDays: 22, RestDays: 4}).Equal(decimal.NewFromInt(20)))
}

func TestIRBase_FlooredAtZero(t *testing.T) {
	base := IRBase(decimal.NewFromInt(300), decimal.NewFromInt(22), 3)
	assert.True(t, base.IsZero())
	assert.True(t, IRBase(decimal.NewFromInt(3000), decimal.Zero, -2).Equal(decimal.NewFromInt(3000)))
}
