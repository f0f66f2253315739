package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

func newTestMeter(t *testing.T) (*UsageMeter, *fakeSubscriptions, *fakeUsage) {
	t.Helper()
	subscriptions := newFakeSubscriptions()
	usage := newFakeUsage()
	meter := NewUsageMeter(subscriptions, usage, logger.NewLogger())
	meter.now = func() time.Time { return testNow }
	return meter, subscriptions, usage
}

func TestIncrementRecordsUsage(t *testing.T) {
	meter, subscriptions, usage := newTestMeter(t)
	subscriptions.subscriptions["tenant-1"] = activeSubscription("tenant-1", "pkg-1")

	require.NoError(t, meter.Increment(context.Background(), "tenant-1", UsagePOS))
	require.NoError(t, meter.Increment(context.Background(), "tenant-1", UsageNotes))

	period, err := usage.FindPeriod(context.Background(), "tenant-1", testNow)
	require.NoError(t, err)
	require.NotNil(t, period)
	assert.Equal(t, 1, period.POSCount)
	assert.Equal(t, 1, period.NotesCount)
	assert.Equal(t, 2, period.Total)
}

func TestIncrementInvalidKind(t *testing.T) {
	meter, subscriptions, usage := newTestMeter(t)
	subscriptions.subscriptions["tenant-1"] = activeSubscription("tenant-1", "pkg-1")

	err := meter.Increment(context.Background(), "tenant-1", UsageKind("boletos"))
	assert.ErrorIs(t, err, ErrInvalidUsageKind)
	assert.Empty(t, usage.increments)
}

func TestIncrementWithoutSubscription(t *testing.T) {
	meter, _, usage := newTestMeter(t)

	// Tenant sem assinatura não é medido, mas a aceitação nunca falha
	require.NoError(t, meter.Increment(context.Background(), "tenant-1", UsagePOS))
	assert.Empty(t, usage.increments)
}

func TestIncrementSubscriptionLookupFailure(t *testing.T) {
	meter, subscriptions, _ := newTestMeter(t)
	subscriptions.err = errors.New("banco indisponível")

	err := meter.Increment(context.Background(), "tenant-1", UsagePOS)
	assert.Error(t, err)
}

func TestIncrementUsageWriteFailure(t *testing.T) {
	meter, subscriptions, usage := newTestMeter(t)
	subscriptions.subscriptions["tenant-1"] = activeSubscription("tenant-1", "pkg-1")
	usage.err = errors.New("banco indisponível")

	err := meter.Increment(context.Background(), "tenant-1", UsagePOS)
	assert.Error(t, err)
}
