package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodBounds(t *testing.T) {
	start, end := PeriodBounds(time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), end)

	// Virada de ano
	start, end = PeriodBounds(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestSubscriptionCoversAt(t *testing.T) {
	sub := &Subscription{
		Active:     true,
		CycleStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CycleEnd:   time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
	}

	// Limites inclusivos
	assert.True(t, sub.CoversAt(sub.CycleStart))
	assert.True(t, sub.CoversAt(sub.CycleEnd))
	assert.True(t, sub.CoversAt(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))

	assert.False(t, sub.CoversAt(sub.CycleStart.Add(-time.Second)))
	assert.False(t, sub.CoversAt(sub.CycleEnd.Add(time.Second)))

	sub.Active = false
	assert.False(t, sub.CoversAt(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))
}

func TestUsagePeriodUsed(t *testing.T) {
	var missing *UsagePeriod
	assert.Equal(t, 0, missing.Used())

	period := &UsagePeriod{Total: 42}
	assert.Equal(t, 42, period.Used())
}
