package fiscal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/customer"
	"github.com/hugohenrick/pos-facturacion/internal/domain/order"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

type workerFixture struct {
	worker   *Worker
	queue    *memQueue
	orders   *fakeOrders
	configs  *fakeConfigs
	provider *fakeProvider
	resolver *fakeResolver
	meter    *fakeMeter
	metrics  *TransitionMetrics
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	queue := newMemQueue()
	orders := newFakeOrders()
	customers := &fakeCustomers{customers: map[string]*customer.Customer{}}
	configs := &fakeConfigs{configs: map[string]*Configuration{}}
	configs.configs["tenant-1"] = testConfiguration(t, "tenant-1")
	seedOrder(orders, "order-1", nil)

	builder := NewPayloadBuilder(orders, customers, configs, queue, logger.NewLogger())
	provider := &fakeProvider{pdf: []byte("%PDF-1.4")}
	resolver := &fakeResolver{provider: provider}
	meter := newFakeMeter()
	metrics := NewTransitionMetrics()

	return &workerFixture{
		worker:   NewWorker(queue, builder, resolver, meter, metrics, logger.NewLogger()),
		queue:    queue,
		orders:   orders,
		configs:  configs,
		provider: provider,
		resolver: resolver,
		meter:    meter,
		metrics:  metrics,
	}
}

func (f *workerFixture) enqueue(t *testing.T, kind DocumentKind, sourceType SourceType, sourceID string) *QueueEntry {
	t.Helper()
	entry, err := NewQueueEntry("tenant-1", kind, sourceType, sourceID, "", "18760000001", "SETP", 1)
	require.NoError(t, err)
	require.NoError(t, f.queue.Create(context.Background(), entry))
	return entry
}

func acceptedResponse(trackID, cufe string) *ProviderResponse {
	return &ProviderResponse{
		Success: true,
		Data:    &ProviderResponseData{TrackID: trackID, CUFE: cufe, QRCode: "qr"},
	}
}

func TestProcessDocumentAccepted(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{{resp: acceptedResponse("track-1", "cufe-1")}}

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
	assert.Equal(t, "cufe-1", reloaded.CUFE)
	assert.NotNil(t, reloaded.RequestJSON)
	assert.NotNil(t, reloaded.ResponseJSON)

	// Uso medido e PDF armazenado após a aceitação
	assert.Equal(t, 1, f.meter.counts[billing.UsagePOS])
	file, err := f.queue.FindFile(context.Background(), entry.ID, FilePDF)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), file.Content)

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot["sent"])
	assert.Equal(t, int64(1), snapshot["accepted"])
}

func TestProcessDocumentTransientFailuresExhaustRetries(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
	}

	for attempt, wantStatus := range []Status{StatusRetry, StatusRetry, StatusFailed} {
		ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.Equal(t, wantStatus, reloaded.Status)
		assert.Equal(t, attempt+1, reloaded.RetryCount)
	}

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot["retried"])
	assert.Equal(t, int64(1), snapshot["failed"])
}

func TestProcessDocumentRecoversAfterRetries(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{resp: acceptedResponse("track-1", "cufe-1")},
	}

	for i := 0; i < 2; i++ {
		ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
	assert.Equal(t, 2, reloaded.RetryCount)
}

func TestProcessDocumentRejectedByProvider(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	rejection := &ProviderResponse{Success: false, Errors: []string{"NIT do adquirente inválido"}}
	f.provider.responses = []providerCall{
		{resp: rejection}, {resp: rejection}, {resp: rejection},
	}

	var reloaded *QueueEntry
	for i := 0; i < 3; i++ {
		ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		var findErr error
		reloaded, findErr = f.queue.FindByID(context.Background(), entry.ID)
		require.NoError(t, findErr)
	}

	// Rejeição explícita com tentativas esgotadas termina em REJECTED
	assert.Equal(t, StatusRejected, reloaded.Status)
	assert.Equal(t, "NIT do adquirente inválido", reloaded.ErrorMessage)
	assert.NotNil(t, reloaded.ResponseJSON)
	assert.Empty(t, f.meter.counts)
}

func TestProcessDocumentTerminalState(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{{resp: acceptedResponse("track-1", "cufe-1")}}

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Documento aceito não é reprocessado
	_, err = f.worker.ProcessDocument(context.Background(), entry.ID)
	assert.ErrorIs(t, err, ErrDocumentNotProcessable)
}

func TestProcessDocumentResolverFailure(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.resolver.err = ErrConfigurationIncomplete

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Problema de configuração não é retentável
	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, reloaded.Status)
	assert.Equal(t, 0, reloaded.RetryCount)
}

func TestProcessDocumentBuilderFailure(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-missing")

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, reloaded.Status)
}

func TestProcessDocumentPDFFailureKeepsAcceptance(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{{resp: acceptedResponse("track-1", "cufe-1")}}
	f.provider.pdfErr = errors.New("pdf indisponível")

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)

	_, err = f.queue.FindFile(context.Background(), entry.ID, FilePDF)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestProcessDocumentMeterFailureKeepsAcceptance(t *testing.T) {
	f := newWorkerFixture(t)
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{{resp: acceptedResponse("track-1", "cufe-1")}}
	f.meter.err = errors.New("banco indisponível")

	ok, err := f.worker.ProcessDocument(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
}

func TestProcessDocumentCreditNoteMetersNotes(t *testing.T) {
	f := newWorkerFixture(t)

	f.orders.refunds["refund-1"] = &order.Refund{
		ID:             "refund-1",
		OrderID:        "order-1",
		Amount:         41.65,
		CorrectionCode: "2",
		Reason:         "Devolução total da venda",
	}
	original := f.enqueue(t, KindPOS, SourceSale, "order-1")
	original.MarkSent(nil)
	original.MarkAccepted("track-42", "cufe-42", "", nil)
	require.NoError(t, f.queue.Update(context.Background(), original))

	note, err := NewQueueEntry("tenant-1", KindPOSCreditNote, SourceRefund, "refund-1", "", "18760000001", "SETP", 2)
	require.NoError(t, err)
	require.NoError(t, f.queue.Create(context.Background(), note))

	f.provider.responses = []providerCall{{resp: acceptedResponse("track-43", "cude-43")}}

	ok, err := f.worker.ProcessDocument(context.Background(), note.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.meter.counts[billing.UsageNotes])
}

func TestProcessPendingBatch(t *testing.T) {
	f := newWorkerFixture(t)

	f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.enqueue(t, KindPOS, SourceSale, "order-1")
	failing := f.enqueue(t, KindPOS, SourceSale, "order-missing")

	f.provider.responses = []providerCall{
		{resp: acceptedResponse("t1", "c1")},
		{resp: acceptedResponse("t2", "c2")},
	}

	result, err := f.worker.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Failed)

	reloaded, err := f.queue.FindByID(context.Background(), failing.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, reloaded.Status)
}

func TestProcessPendingRecoversAbandonedSentDocument(t *testing.T) {
	f := newWorkerFixture(t)

	// Simula um worker que caiu entre a marcação SENT e a gravação da
	// resposta: o documento fica parado em SENT sem estado terminal
	entry := f.enqueue(t, KindPOS, SourceSale, "order-1")
	entry.MarkSent([]byte(`{"kind":"POS"}`))
	require.NoError(t, f.queue.Update(context.Background(), entry))

	f.provider.responses = []providerCall{{resp: acceptedResponse("track-1", "cufe-1")}}

	result, err := f.worker.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Accepted)

	reloaded, err := f.queue.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
}

func TestProcessPendingCountsRetriedOutcomes(t *testing.T) {
	f := newWorkerFixture(t)
	f.enqueue(t, KindPOS, SourceSale, "order-1")
	f.provider.responses = []providerCall{{err: errors.New("timeout")}}

	result, err := f.worker.ProcessPending(context.Background())
	require.NoError(t, err)

	// Falha transitória com tentativas sobrando conta como retentativa,
	// não como falha
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Retried)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Accepted)
}

func TestProcessPendingEmptyQueue(t *testing.T) {
	f := newWorkerFixture(t)

	result, err := f.worker.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestUsageKindFor(t *testing.T) {
	assert.Equal(t, billing.UsagePOS, usageKindFor(KindPOS))
	assert.Equal(t, billing.UsageInvoice, usageKindFor(KindInvoice))
	assert.Equal(t, billing.UsageNotes, usageKindFor(KindPOSCreditNote))
	assert.Equal(t, billing.UsageNotes, usageKindFor(KindPOSDebitNote))
	assert.Equal(t, billing.UsageSupportDocs, usageKindFor(KindSupportDoc))
	assert.Equal(t, billing.UsageSupportDocs, usageKindFor(KindSupportAdjustment))
}
