package fiscal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/pos-facturacion/internal/domain/customer"
	"github.com/hugohenrick/pos-facturacion/internal/domain/order"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

func testConfiguration(t *testing.T, tenantID string) *Configuration {
	t.Helper()
	config, err := NewConfiguration(tenantID)
	require.NoError(t, err)
	require.NoError(t, config.ConfigureResolution("18760000001", "SETP", 1, nil))
	require.NoError(t, config.ConfigureProvider("https://provider.test", "key", "secret", "900123456"))
	config.ConfigureSupportDocs("18760000002", "DS")
	require.NoError(t, config.Enable())
	return config
}

func newTestBuilder(t *testing.T) (*PayloadBuilder, *fakeOrders, *fakeCustomers, *fakeConfigs, *memQueue) {
	t.Helper()
	orders := newFakeOrders()
	customers := &fakeCustomers{customers: map[string]*customer.Customer{}}
	configs := &fakeConfigs{configs: map[string]*Configuration{}}
	queue := newMemQueue()
	builder := NewPayloadBuilder(orders, customers, configs, queue, logger.NewLogger())
	return builder, orders, customers, configs, queue
}

func seedOrder(orders *fakeOrders, id string, customerID *string) {
	orders.orders[id] = &order.Order{
		ID:         id,
		Number:     "PDV-" + id,
		CustomerID: customerID,
		Status:     order.StatusCompleted,
		CreatedAt:  time.Now(),
	}
	orders.items[id] = []order.Item{
		{ID: "i1", OrderID: id, ProductCode: "SKU-1", Description: "Café 500g", Quantity: 1, UnitPrice: 20.00},
		{ID: "i2", OrderID: id, ProductCode: "SKU-2", Description: "Açúcar 1kg", Quantity: 1, UnitPrice: 15.00},
	}
	orders.payments[id] = []order.Payment{
		{ID: "p1", OrderID: id, Method: order.PaymentCash, Amount: 41.65},
	}
}

func TestBuildInvoicePayloadTaxArithmetic(t *testing.T) {
	builder, orders, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "PDV-order-1", "18760000001", "SETP", 42)
	require.NoError(t, err)

	payload, err := builder.BuildInvoicePayload(context.Background(), entry, config)
	require.NoError(t, err)

	require.Len(t, payload.Lines, 2)
	assert.Equal(t, 20.00, payload.Lines[0].LineExtension)
	assert.Equal(t, 3.80, payload.Lines[0].TaxAmount)
	assert.Equal(t, 15.00, payload.Lines[1].LineExtension)
	assert.Equal(t, 2.85, payload.Lines[1].TaxAmount)

	assert.Equal(t, 35.00, payload.Totals.LineExtension)
	assert.Equal(t, 6.65, payload.Totals.Tax)
	assert.Equal(t, 41.65, payload.Totals.Payable)

	assert.Equal(t, int64(42), payload.Number)
	assert.Equal(t, "900123456", payload.CompanyNIT)
	assert.Equal(t, PaymentCash, payload.PaymentMethod)
}

func TestBuildInvoicePayloadFinalConsumer(t *testing.T) {
	builder, orders, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 1)
	require.NoError(t, err)

	payload, err := builder.BuildInvoicePayload(context.Background(), entry, config)
	require.NoError(t, err)

	// Venda de balcão sem cliente identificado usa o consumidor final
	assert.Equal(t, FinalConsumerDocument, payload.Customer.Document)
	assert.Equal(t, FinalConsumerDocumentType, payload.Customer.DocumentType)
	assert.Equal(t, FinalConsumerName, payload.Customer.Name)
	assert.Equal(t, OrgNaturalPerson, payload.Customer.OrganizationType)
	assert.Equal(t, RegimeSimplified, payload.Customer.Regime)
}

func TestBuildInvoicePayloadJuridicalCustomer(t *testing.T) {
	builder, orders, customers, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config

	customerID := "cust-1"
	seedOrder(orders, "order-1", &customerID)
	customers.customers[customerID] = &customer.Customer{
		ID:           customerID,
		Name:         "Distribuidora El Sol SAS",
		PersonType:   customer.PersonTypeJuridical,
		DocumentType: customer.DocTypeNIT,
		Document:     "901234567",
		Email:        "facturas@elsol.co",
	}

	entry, err := NewQueueEntry("tenant-1", KindInvoice, SourceSale, "order-1", "", "18760000001", "SETP", 2)
	require.NoError(t, err)

	payload, err := builder.BuildInvoicePayload(context.Background(), entry, config)
	require.NoError(t, err)

	assert.Equal(t, "901234567", payload.Customer.Document)
	assert.Equal(t, string(customer.DocTypeNIT), payload.Customer.DocumentType)
	assert.Equal(t, OrgJuridicalPerson, payload.Customer.OrganizationType)
	assert.Equal(t, RegimeCommon, payload.Customer.Regime)
}

func TestBuildInvoicePayloadOrderNotFound(t *testing.T) {
	builder, _, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "missing", "", "18760000001", "SETP", 1)
	require.NoError(t, err)

	_, err = builder.BuildInvoicePayload(context.Background(), entry, config)
	assert.ErrorIs(t, err, ErrCannotBuildPayload)
}

func TestBuildInvoicePayloadWithoutItems(t *testing.T) {
	builder, orders, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	orders.orders["order-1"] = &order.Order{ID: "order-1", Status: order.StatusCompleted}

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 1)
	require.NoError(t, err)

	_, err = builder.BuildInvoicePayload(context.Background(), entry, config)
	assert.ErrorIs(t, err, ErrCannotBuildPayload)
}

func TestClassifyPayments(t *testing.T) {
	// Sem pagamento registrado assume efectivo
	assert.Equal(t, PaymentCash, classifyPayments(nil))

	assert.Equal(t, PaymentCard, classifyPayments([]order.Payment{{Method: order.PaymentCard}}))
	assert.Equal(t, PaymentTransfer, classifyPayments([]order.Payment{{Method: order.PaymentTransfer}}))
	assert.Equal(t, PaymentCredit, classifyPayments([]order.Payment{{Method: order.PaymentCredit}}))

	mixed := []order.Payment{
		{Method: order.PaymentCash, Amount: 10},
		{Method: order.PaymentCard, Amount: 31.65},
	}
	assert.Equal(t, PaymentMixed, classifyPayments(mixed))
}

func TestBuildCreditNotePayloadBackCalculatesTax(t *testing.T) {
	builder, orders, _, configs, queue := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)
	orders.refunds["refund-1"] = &order.Refund{
		ID:             "refund-1",
		OrderID:        "order-1",
		Amount:         41.65,
		CorrectionCode: "2",
		Reason:         "Devolução total da venda",
	}

	// A nota de crédito referencia o documento aceito da venda original
	original, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 42)
	require.NoError(t, err)
	original.MarkSent(nil)
	original.MarkAccepted("track-42", "cufe-42", "", nil)
	require.NoError(t, queue.Create(context.Background(), original))

	entry, err := NewQueueEntry("tenant-1", KindPOSCreditNote, SourceRefund, "refund-1", "", "18760000001", "SETP", 43)
	require.NoError(t, err)

	payload, err := builder.BuildCreditNotePayload(context.Background(), entry, config)
	require.NoError(t, err)

	// Imposto retro-calculado do valor bruto: 41.65 * 19/119
	assert.Equal(t, 41.65, payload.RefundAmount)
	assert.Equal(t, 6.65, payload.TaxAmount)
	assert.Equal(t, 35.00, payload.BaseAmount)
	assert.Equal(t, "2", payload.CorrectionCode)

	assert.Equal(t, "cufe-42", payload.Reference.CUFE)
	assert.Equal(t, "SETP42", payload.Reference.Number)
	assert.NotEmpty(t, payload.Reference.IssueDate)
}

func TestBuildCreditNotePayloadWithoutAcceptedReference(t *testing.T) {
	builder, orders, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)
	orders.refunds["refund-1"] = &order.Refund{ID: "refund-1", OrderID: "order-1", Amount: 10, CorrectionCode: "2"}

	entry, err := NewQueueEntry("tenant-1", KindPOSCreditNote, SourceRefund, "refund-1", "", "18760000001", "SETP", 43)
	require.NoError(t, err)

	_, err = builder.BuildCreditNotePayload(context.Background(), entry, config)
	assert.ErrorIs(t, err, ErrReferenceDocumentNotFound)
}

func TestBuildDebitNotePayload(t *testing.T) {
	builder, orders, _, configs, queue := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)
	orders.refunds["adj-1"] = &order.Refund{
		ID:             "adj-1",
		OrderID:        "order-1",
		Amount:         11.90,
		CorrectionCode: "3",
		Reason:         "Cobrança de frete não faturado",
	}

	original, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 42)
	require.NoError(t, err)
	original.MarkSent(nil)
	original.MarkAccepted("track-42", "cufe-42", "", nil)
	require.NoError(t, queue.Create(context.Background(), original))

	entry, err := NewQueueEntry("tenant-1", KindPOSDebitNote, SourceAdjustment, "adj-1", "", "18760000001", "SETP", 44)
	require.NoError(t, err)

	payload, err := builder.BuildDebitNotePayload(context.Background(), entry, config)
	require.NoError(t, err)

	assert.Equal(t, 11.90, payload.ChargeAmount)
	assert.Equal(t, 1.90, payload.TaxAmount)
	assert.Equal(t, 10.00, payload.BaseAmount)
	assert.Equal(t, "cufe-42", payload.Reference.CUFE)
}

func TestBuildSerializesEnvelope(t *testing.T) {
	builder, orders, _, configs, _ := newTestBuilder(t)
	config := testConfiguration(t, "tenant-1")
	configs.configs["tenant-1"] = config
	seedOrder(orders, "order-1", nil)

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 1)
	require.NoError(t, err)

	payload, envelope, err := builder.Build(context.Background(), entry)
	require.NoError(t, err)
	require.IsType(t, &InvoicePayload{}, payload)

	decoded, err := DecodeEnvelope(envelope)
	require.NoError(t, err)
	assert.Equal(t, KindPOS, decoded.Kind)
}

func TestBuildWithoutConfiguration(t *testing.T) {
	builder, orders, _, _, _ := newTestBuilder(t)
	seedOrder(orders, "order-1", nil)

	entry, err := NewQueueEntry("tenant-1", KindPOS, SourceSale, "order-1", "", "18760000001", "SETP", 1)
	require.NoError(t, err)

	_, _, err = builder.Build(context.Background(), entry)
	assert.ErrorIs(t, err, ErrCannotBuildPayload)
}
