package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hugohenrick/pos-facturacion/internal/domain/customer"
	"github.com/hugohenrick/pos-facturacion/internal/domain/order"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// PayloadBuilder monta os payloads enviados ao provedor a partir dos
// registros de domínio (pedido, itens, cliente, pagamentos e configuração
// tributária do tenant). Toda a aritmética de impostos acontece aqui, com
// arredondamento half-up a 2 casas em cada passo, nunca acumulando valores
// sem arredondar.
type PayloadBuilder struct {
	orders    order.Repository
	customers customer.Repository
	configs   ConfigurationRepository
	queue     QueueRepository
	logger    logger.Logger
}

// NewPayloadBuilder cria uma nova instância de PayloadBuilder
func NewPayloadBuilder(orders order.Repository, customers customer.Repository, configs ConfigurationRepository, queue QueueRepository, logger logger.Logger) *PayloadBuilder {
	return &PayloadBuilder{
		orders:    orders,
		customers: customers,
		configs:   configs,
		queue:     queue,
		logger:    logger,
	}
}

// Build monta o payload adequado ao tipo do documento e retorna o payload
// tipado junto com o envelope serializado para persistência. Qualquer
// registro irresolvível (pedido, tenant, configuração) resulta em
// ErrCannotBuildPayload, que o worker traduz em FAILED.
func (b *PayloadBuilder) Build(ctx context.Context, entry *QueueEntry) (interface{}, []byte, error) {
	config, err := b.configs.FindByTenant(ctx, entry.TenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: configuração do tenant %s: %v", ErrCannotBuildPayload, entry.TenantID, err)
	}

	var payload interface{}
	switch entry.Kind {
	case KindPOS, KindInvoice, KindSupportDoc:
		payload, err = b.BuildInvoicePayload(ctx, entry, config)
	case KindPOSCreditNote, KindSupportAdjustment:
		payload, err = b.BuildCreditNotePayload(ctx, entry, config)
	case KindPOSDebitNote:
		payload, err = b.BuildDebitNotePayload(ctx, entry, config)
	default:
		return nil, nil, fmt.Errorf("%w: tipo de documento %s", ErrCannotBuildPayload, entry.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	envelope, err := EncodePayload(entry.Kind, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCannotBuildPayload, err)
	}
	return payload, envelope, nil
}

// BuildInvoicePayload monta o payload de fatura/documento POS/documento de
// suporte a partir do pedido de origem.
//
// Por linha: lineExtension = round(quantidade * preço, 2) e
// lineTax = round(lineExtension * taxa/100, 2) quando taxa > 0. Os totais
// somam as linhas já arredondadas e payable = round(base + imposto, 2).
func (b *PayloadBuilder) BuildInvoicePayload(ctx context.Context, entry *QueueEntry, config *Configuration) (*InvoicePayload, error) {
	ord, err := b.orders.FindByID(ctx, entry.SourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: pedido %s: %v", ErrCannotBuildPayload, entry.SourceID, err)
	}

	items, err := b.orders.FindItems(ctx, ord.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: itens do pedido %s: %v", ErrCannotBuildPayload, ord.ID, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: pedido %s sem itens", ErrCannotBuildPayload, ord.ID)
	}

	payments, err := b.orders.FindPayments(ctx, ord.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: pagamentos do pedido %s: %v", ErrCannotBuildPayload, ord.ID, err)
	}

	payloadCustomer, err := b.resolveCustomer(ctx, ord.CustomerID)
	if err != nil {
		return nil, err
	}

	taxRate := config.TaxRate
	lines := make([]PayloadLine, 0, len(items))
	totalExtension := decimal.Zero
	totalTax := decimal.Zero

	for _, it := range items {
		lineExtension := decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice)).Round(2)
		lineTax := decimal.Zero
		if taxRate > 0 {
			lineTax = lineExtension.Mul(decimal.NewFromFloat(taxRate)).Div(decimal.NewFromInt(100)).Round(2)
		}

		totalExtension = totalExtension.Add(lineExtension)
		totalTax = totalTax.Add(lineTax)

		lines = append(lines, PayloadLine{
			Code:          it.ProductCode,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TaxRate:       taxRate,
			LineExtension: lineExtension.InexactFloat64(),
			TaxAmount:     lineTax.InexactFloat64(),
		})
	}

	payable := totalExtension.Add(totalTax).Round(2)
	issuedAt := time.Now()

	return &InvoicePayload{
		Kind:             entry.Kind,
		ResolutionNumber: entry.ResolutionNumber,
		Prefix:           entry.Prefix,
		Number:           entry.DocumentNumber,
		IssueDate:        issuedAt.Format("2006-01-02"),
		IssueTime:        issuedAt.Format("15:04:05"),
		CompanyNIT:       config.CompanyNIT,
		Customer:         payloadCustomer,
		Lines:            lines,
		PaymentMethod:    classifyPayments(payments),
		Totals: PayloadTotals{
			LineExtension: totalExtension.InexactFloat64(),
			Tax:           totalTax.InexactFloat64(),
			Payable:       payable.InexactFloat64(),
		},
	}, nil
}

// BuildCreditNotePayload monta o payload de nota de crédito a partir de
// uma devolução. Exige o documento original aceito (CUFE, número e data de
// emissão) e um motivo de correção estruturado. O imposto é retro-calculado
// do valor bruto devolvido: tax = round(valor * taxa/(100+taxa), 2) e
// base = valor - tax.
func (b *PayloadBuilder) BuildCreditNotePayload(ctx context.Context, entry *QueueEntry, config *Configuration) (*CreditNotePayload, error) {
	refund, err := b.orders.FindRefund(ctx, entry.SourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: devolução %s: %v", ErrCannotBuildPayload, entry.SourceID, err)
	}

	ord, err := b.orders.FindByID(ctx, refund.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: pedido %s: %v", ErrCannotBuildPayload, refund.OrderID, err)
	}

	reference, err := b.resolveReference(ctx, entry.TenantID, ord.ID)
	if err != nil {
		return nil, err
	}

	payloadCustomer, err := b.resolveCustomer(ctx, ord.CustomerID)
	if err != nil {
		return nil, err
	}

	taxRate := config.TaxRate
	gross := decimal.NewFromFloat(refund.Amount)
	tax := decimal.Zero
	if taxRate > 0 {
		rate := decimal.NewFromFloat(taxRate)
		tax = gross.Mul(rate).Div(decimal.NewFromInt(100).Add(rate)).Round(2)
	}
	base := gross.Sub(tax)

	issuedAt := time.Now()
	return &CreditNotePayload{
		Kind:             entry.Kind,
		ResolutionNumber: entry.ResolutionNumber,
		Prefix:           entry.Prefix,
		Number:           entry.DocumentNumber,
		IssueDate:        issuedAt.Format("2006-01-02"),
		IssueTime:        issuedAt.Format("15:04:05"),
		CompanyNIT:       config.CompanyNIT,
		Customer:         payloadCustomer,
		Reference:        *reference,
		CorrectionCode:   refund.CorrectionCode,
		CorrectionReason: refund.Reason,
		RefundAmount:     gross.Round(2).InexactFloat64(),
		TaxRate:          taxRate,
		TaxAmount:        tax.InexactFloat64(),
		BaseAmount:       base.InexactFloat64(),
	}, nil
}

// BuildDebitNotePayload monta o payload de nota de débito (cobrança
// adicional sobre um documento aceito), com a mesma retro-aritmética da
// nota de crédito.
func (b *PayloadBuilder) BuildDebitNotePayload(ctx context.Context, entry *QueueEntry, config *Configuration) (*DebitNotePayload, error) {
	adjustment, err := b.orders.FindRefund(ctx, entry.SourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: ajuste %s: %v", ErrCannotBuildPayload, entry.SourceID, err)
	}

	ord, err := b.orders.FindByID(ctx, adjustment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: pedido %s: %v", ErrCannotBuildPayload, adjustment.OrderID, err)
	}

	reference, err := b.resolveReference(ctx, entry.TenantID, ord.ID)
	if err != nil {
		return nil, err
	}

	payloadCustomer, err := b.resolveCustomer(ctx, ord.CustomerID)
	if err != nil {
		return nil, err
	}

	taxRate := config.TaxRate
	gross := decimal.NewFromFloat(adjustment.Amount)
	tax := decimal.Zero
	if taxRate > 0 {
		rate := decimal.NewFromFloat(taxRate)
		tax = gross.Mul(rate).Div(decimal.NewFromInt(100).Add(rate)).Round(2)
	}
	base := gross.Sub(tax)

	issuedAt := time.Now()
	return &DebitNotePayload{
		Kind:             entry.Kind,
		ResolutionNumber: entry.ResolutionNumber,
		Prefix:           entry.Prefix,
		Number:           entry.DocumentNumber,
		IssueDate:        issuedAt.Format("2006-01-02"),
		IssueTime:        issuedAt.Format("15:04:05"),
		CompanyNIT:       config.CompanyNIT,
		Customer:         payloadCustomer,
		Reference:        *reference,
		CorrectionCode:   adjustment.CorrectionCode,
		CorrectionReason: adjustment.Reason,
		ChargeAmount:     gross.Round(2).InexactFloat64(),
		TaxRate:          taxRate,
		TaxAmount:        tax.InexactFloat64(),
		BaseAmount:       base.InexactFloat64(),
	}, nil
}

// resolveCustomer identifica o adquirente. Venda de balcão sem cliente usa
// o consumidor final com documento genérico; clientes com NIT são
// classificados como pessoa jurídica no regime comum.
func (b *PayloadBuilder) resolveCustomer(ctx context.Context, customerID *string) (PayloadCustomer, error) {
	if customerID == nil || *customerID == "" {
		return PayloadCustomer{
			Document:         FinalConsumerDocument,
			DocumentType:     FinalConsumerDocumentType,
			Name:             FinalConsumerName,
			OrganizationType: OrgNaturalPerson,
			Regime:           RegimeSimplified,
		}, nil
	}

	c, err := b.customers.FindByID(ctx, *customerID)
	if err != nil {
		return PayloadCustomer{}, fmt.Errorf("%w: cliente %s: %v", ErrCannotBuildPayload, *customerID, err)
	}

	orgType := OrgNaturalPerson
	regime := RegimeSimplified
	if c.IsJuridical() {
		orgType = OrgJuridicalPerson
		regime = RegimeCommon
	}

	return PayloadCustomer{
		Document:         c.Document,
		DocumentType:     string(c.DocumentType),
		Name:             c.Name,
		Email:            c.Email,
		OrganizationType: orgType,
		Regime:           regime,
	}, nil
}

// resolveReference localiza o documento aceito do pedido original para
// referenciá-lo na nota de correção
func (b *PayloadBuilder) resolveReference(ctx context.Context, tenantID, orderID string) (*DocumentReference, error) {
	original, err := b.queue.FindAcceptedBySource(ctx, tenantID, SourceSale, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: pedido %s: %v", ErrReferenceDocumentNotFound, orderID, err)
	}

	issueDate := ""
	if original.AcceptedAt != nil {
		issueDate = original.AcceptedAt.Format("2006-01-02")
	}

	return &DocumentReference{
		CUFE:      original.CUFE,
		Number:    original.FullNumber(),
		IssueDate: issueDate,
	}, nil
}

// classifyPayments classifica o meio de pagamento do documento: um único
// meio mapeia direto; meios distintos colapsam no código de pagamento
// misto.
func classifyPayments(payments []order.Payment) string {
	if len(payments) == 0 {
		return PaymentCash
	}

	distinct := map[order.PaymentMethod]bool{}
	for _, p := range payments {
		distinct[p.Method] = true
	}
	if len(distinct) > 1 {
		return PaymentMixed
	}

	switch payments[0].Method {
	case order.PaymentCash:
		return PaymentCash
	case order.PaymentCard:
		return PaymentCard
	case order.PaymentTransfer:
		return PaymentTransfer
	case order.PaymentCredit:
		return PaymentCredit
	default:
		return PaymentMixed
	}
}
