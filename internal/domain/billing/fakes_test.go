package billing

import (
	"context"
	"time"
)

// fakeSubscriptions implementa SubscriptionRepository sobre mapas
type fakeSubscriptions struct {
	subscriptions map[string]*Subscription
	packages      map[string]*Package
	err           error
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{
		subscriptions: map[string]*Subscription{},
		packages:      map[string]*Package{},
	}
}

func (f *fakeSubscriptions) FindActiveByTenant(_ context.Context, tenantID string, at time.Time) (*Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subscriptions[tenantID]
	if !ok || !sub.CoversAt(at) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (f *fakeSubscriptions) FindPackage(_ context.Context, packageID string) (*Package, error) {
	pkg, ok := f.packages[packageID]
	if !ok {
		return nil, ErrPackageNotFound
	}
	return pkg, nil
}

// fakeUsage implementa UsageRepository com uma linha por tenant/mês
type fakeUsage struct {
	periods    map[string]*UsagePeriod
	increments []UsageKind
	err        error
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{periods: map[string]*UsagePeriod{}}
}

func usageKey(tenantID string, at time.Time) string {
	start, _ := PeriodBounds(at)
	return tenantID + "/" + start.Format("2006-01")
}

func (f *fakeUsage) FindPeriod(_ context.Context, tenantID string, at time.Time) (*UsagePeriod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.periods[usageKey(tenantID, at)], nil
}

func (f *fakeUsage) IncrementUsage(_ context.Context, tenantID string, kind UsageKind, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	key := usageKey(tenantID, at)
	period, ok := f.periods[key]
	if !ok {
		start, end := PeriodBounds(at)
		period = &UsagePeriod{TenantID: tenantID, PeriodStart: start, PeriodEnd: end}
		f.periods[key] = period
	}
	switch kind {
	case UsagePOS:
		period.POSCount++
	case UsageInvoice:
		period.InvoiceCount++
	case UsageNotes:
		period.NotesCount++
	case UsageSupportDocs:
		period.SupportDocsCount++
	}
	period.Total++
	f.increments = append(f.increments, kind)
	return nil
}
