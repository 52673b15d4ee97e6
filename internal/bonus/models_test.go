package bonus

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bonus_service/internal/template"
)

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusWagering.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestRateFor(t *testing.T) {
	w := WageringState{
		Rates: template.RateTable{
			template.CategoryCasino: decimal.NewFromFloat(0.5),
		},
		DefaultRate: decimal.NewFromInt(1),
	}

	assert.True(t, w.RateFor(template.CategoryCasino).Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, w.RateFor(template.CategorySports).Equal(decimal.NewFromInt(1)), "unlisted category falls back to the default rate")
}

func TestWageringProgressRounding(t *testing.T) {
	progress := wageringProgress(decimal.NewFromInt(1), decimal.NewFromInt(3))
	assert.True(t, progress.Equal(decimal.NewFromFloat(33.33)), "got %s", progress)

	assert.True(t, wageringProgress(decimal.NewFromInt(5), decimal.NewFromInt(4)).Equal(decimal.NewFromInt(100)), "capped at 100")
	assert.True(t, wageringProgress(decimal.NewFromInt(5), decimal.Zero).IsZero(), "zero requirement yields zero progress")
}
