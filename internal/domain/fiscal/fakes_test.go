package fiscal

import (
	"context"
	"fmt"
	"sync"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/customer"
	"github.com/hugohenrick/pos-facturacion/internal/domain/order"
)

// memQueue é uma implementação em memória de QueueRepository para testes
type memQueue struct {
	mu      sync.Mutex
	entries map[string]*QueueEntry
	files   map[string]*DocumentFile
}

func newMemQueue() *memQueue {
	return &memQueue{
		entries: map[string]*QueueEntry{},
		files:   map[string]*DocumentFile{},
	}
}

func (q *memQueue) Create(_ context.Context, entry *QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *entry
	q.entries[entry.ID] = &cp
	return nil
}

func (q *memQueue) FindByID(_ context.Context, id string) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	cp := *e
	return &cp, nil
}

func (q *memQueue) FindAcceptedBySource(_ context.Context, tenantID string, sourceType SourceType, sourceID string) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.TenantID == tenantID && e.SourceType == sourceType && e.SourceID == sourceID && e.Status == StatusAccepted {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (q *memQueue) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*QueueEntry
	for _, e := range q.entries {
		if e.TenantID == tenantID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (q *memQueue) ClaimBatch(_ context.Context, status Status, limit int) ([]*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*QueueEntry
	for _, e := range q.entries {
		if e.Status == status && e.RetryCount <= e.MaxRetries && len(out) < limit {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (q *memQueue) Update(_ context.Context, entry *QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.entries[entry.ID]; !ok {
		return ErrDocumentNotFound
	}
	cp := *entry
	q.entries[entry.ID] = &cp
	return nil
}

func (q *memQueue) SaveFile(_ context.Context, file *DocumentFile) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.files[file.DocumentID+"/"+string(file.Kind)] = file
	return nil
}

func (q *memQueue) FindFiles(_ context.Context, documentID string) ([]DocumentFile, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []DocumentFile
	for _, f := range q.files {
		if f.DocumentID == documentID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (q *memQueue) FindFile(_ context.Context, documentID string, kind FileKind) (*DocumentFile, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.files[documentID+"/"+string(kind)]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// fakeOrders implementa order.Repository sobre mapas
type fakeOrders struct {
	orders   map[string]*order.Order
	items    map[string][]order.Item
	payments map[string][]order.Payment
	refunds  map[string]*order.Refund
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders:   map[string]*order.Order{},
		items:    map[string][]order.Item{},
		payments: map[string][]order.Payment{},
		refunds:  map[string]*order.Refund{},
	}
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) FindItems(_ context.Context, orderID string) ([]order.Item, error) {
	return f.items[orderID], nil
}

func (f *fakeOrders) FindPayments(_ context.Context, orderID string) ([]order.Payment, error) {
	return f.payments[orderID], nil
}

func (f *fakeOrders) FindRefund(_ context.Context, refundID string) (*order.Refund, error) {
	r, ok := f.refunds[refundID]
	if !ok {
		return nil, order.ErrRefundNotFound
	}
	return r, nil
}

// fakeCustomers implementa customer.Repository
type fakeCustomers struct {
	customers map[string]*customer.Customer
}

func (f *fakeCustomers) FindByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return c, nil
}

// fakeConfigs implementa ConfigurationRepository
type fakeConfigs struct {
	configs map[string]*Configuration
}

func (f *fakeConfigs) Create(_ context.Context, config *Configuration) error {
	f.configs[config.TenantID] = config
	return nil
}

func (f *fakeConfigs) Update(_ context.Context, config *Configuration) error {
	f.configs[config.TenantID] = config
	return nil
}

func (f *fakeConfigs) FindByTenant(_ context.Context, tenantID string) (*Configuration, error) {
	c, ok := f.configs[tenantID]
	if !ok {
		return nil, ErrConfigurationNotFound
	}
	return c, nil
}

// fakeSequences implementa SequenceRepository com um contador simples
type fakeSequences struct {
	mu       sync.Mutex
	counters map[string]*SequenceCounter
	err      error
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{counters: map[string]*SequenceCounter{}}
}

func (f *fakeSequences) NextNumber(_ context.Context, tenantID, resolutionNumber, prefix string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := tenantID + "/" + resolutionNumber + "/" + prefix
	c, ok := f.counters[key]
	if !ok {
		c = &SequenceCounter{TenantID: tenantID, ResolutionNumber: resolutionNumber, Prefix: prefix}
		f.counters[key] = c
	}
	return c.Advance()
}

// fakeQuota implementa QuotaChecker devolvendo um resultado fixo
type fakeQuota struct {
	mu     sync.Mutex
	result *billing.QuotaCheckResult
	err    error
	calls  int
}

func (f *fakeQuota) CheckQuota(_ context.Context, _ string) (*billing.QuotaCheckResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeProvider implementa Provider com respostas roteirizadas
type fakeProvider struct {
	responses []providerCall
	calls     int
	pdf       []byte
	pdfErr    error
	lastNum   int64
}

type providerCall struct {
	resp *ProviderResponse
	err  error
}

func (f *fakeProvider) next() (*ProviderResponse, error) {
	if f.calls >= len(f.responses) {
		return nil, fmt.Errorf("chamada inesperada ao provedor (%d)", f.calls)
	}
	call := f.responses[f.calls]
	f.calls++
	return call.resp, call.err
}

func (f *fakeProvider) Submit(_ context.Context, _ *InvoicePayload) (*ProviderResponse, error) {
	return f.next()
}

func (f *fakeProvider) SubmitCreditNote(_ context.Context, _ *CreditNotePayload) (*ProviderResponse, error) {
	return f.next()
}

func (f *fakeProvider) SubmitDebitNote(_ context.Context, _ *DebitNotePayload) (*ProviderResponse, error) {
	return f.next()
}

func (f *fakeProvider) GetLastDocument(_ context.Context, _, _ string) (int64, error) {
	return f.lastNum, nil
}

func (f *fakeProvider) GetStatusByTrackID(_ context.Context, _ string) (*ProviderResponse, error) {
	return f.next()
}

func (f *fakeProvider) DownloadPDF(_ context.Context, _ string) ([]byte, error) {
	return f.pdf, f.pdfErr
}

// fakeResolver implementa ProviderResolver
type fakeResolver struct {
	provider Provider
	err      error
}

func (f *fakeResolver) ProviderForTenant(_ context.Context, _ string) (Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

// fakeMeter implementa UsageRecorder contabilizando as chamadas
type fakeMeter struct {
	counts map[billing.UsageKind]int
	err    error
}

func newFakeMeter() *fakeMeter {
	return &fakeMeter{counts: map[billing.UsageKind]int{}}
}

func (f *fakeMeter) Increment(_ context.Context, _ string, kind billing.UsageKind) error {
	if f.err != nil {
		return f.err
	}
	f.counts[kind]++
	return nil
}
