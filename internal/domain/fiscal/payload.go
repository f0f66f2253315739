package fiscal

import (
	"encoding/json"
	"fmt"
)

// Códigos DIAN de meio de pagamento
const (
	PaymentCash     = "10"  // Efectivo
	PaymentCard     = "48"  // Tarjeta crédito/débito
	PaymentTransfer = "42"  // Consignación bancaria
	PaymentCredit   = "1"   // Instrumento no definido (crédito)
	PaymentMixed    = "ZZZ" // Múltiplos meios de pagamento
)

// Identificação do consumidor final (venda de balcão sem cliente)
const (
	FinalConsumerDocument     = "222222222222"
	FinalConsumerDocumentType = "13" // Cédula de ciudadanía
	FinalConsumerName         = "CONSUMIDOR FINAL"
)

// Classificação DIAN de tipo de organização
const (
	OrgJuridicalPerson = "1" // Persona jurídica
	OrgNaturalPerson   = "2" // Persona natural
)

// Regimes tributários DIAN
const (
	RegimeCommon     = "48" // Responsable de IVA
	RegimeSimplified = "49" // No responsable de IVA
)

// PayloadCustomer identifica o adquirente do documento
type PayloadCustomer struct {
	Document         string `json:"document"`
	DocumentType     string `json:"document_type"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	OrganizationType string `json:"organization_type"`
	Regime           string `json:"regime"`
}

// PayloadLine representa uma linha do documento com os valores já
// arredondados a 2 casas decimais
type PayloadLine struct {
	Code          string  `json:"code,omitempty"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TaxRate       float64 `json:"tax_rate"`
	LineExtension float64 `json:"line_extension"`
	TaxAmount     float64 `json:"tax_amount"`
}

// PayloadTotals agrega os totais do documento
type PayloadTotals struct {
	LineExtension float64 `json:"line_extension"`
	Tax           float64 `json:"tax"`
	Payable       float64 `json:"payable"`
}

// InvoicePayload é o payload de fatura eletrônica, documento equivalente
// a POS ou documento de suporte
type InvoicePayload struct {
	Kind             DocumentKind    `json:"kind"`
	ResolutionNumber string          `json:"resolution_number"`
	Prefix           string          `json:"prefix"`
	Number           int64           `json:"number"`
	IssueDate        string          `json:"issue_date"`
	IssueTime        string          `json:"issue_time"`
	CompanyNIT       string          `json:"company_nit"`
	Customer         PayloadCustomer `json:"customer"`
	Lines            []PayloadLine   `json:"lines"`
	PaymentMethod    string          `json:"payment_method"`
	Totals           PayloadTotals   `json:"totals"`
}

// DocumentReference aponta para o documento aceito que uma nota de
// crédito/débito corrige
type DocumentReference struct {
	CUFE      string `json:"cufe"`
	Number    string `json:"number"`
	IssueDate string `json:"issue_date"`
}

// CreditNotePayload é o payload de nota de crédito. O imposto é
// retro-calculado a partir do valor bruto devolvido.
type CreditNotePayload struct {
	Kind             DocumentKind      `json:"kind"`
	ResolutionNumber string            `json:"resolution_number"`
	Prefix           string            `json:"prefix"`
	Number           int64             `json:"number"`
	IssueDate        string            `json:"issue_date"`
	IssueTime        string            `json:"issue_time"`
	CompanyNIT       string            `json:"company_nit"`
	Customer         PayloadCustomer   `json:"customer"`
	Reference        DocumentReference `json:"reference"`
	CorrectionCode   string            `json:"correction_code"`
	CorrectionReason string            `json:"correction_reason"`
	RefundAmount     float64           `json:"refund_amount"`
	TaxRate          float64           `json:"tax_rate"`
	TaxAmount        float64           `json:"tax_amount"`
	BaseAmount       float64           `json:"base_amount"`
}

// DebitNotePayload é o payload de nota de débito (ajustes que aumentam o
// valor do documento original)
type DebitNotePayload struct {
	Kind             DocumentKind      `json:"kind"`
	ResolutionNumber string            `json:"resolution_number"`
	Prefix           string            `json:"prefix"`
	Number           int64             `json:"number"`
	IssueDate        string            `json:"issue_date"`
	IssueTime        string            `json:"issue_time"`
	CompanyNIT       string            `json:"company_nit"`
	Customer         PayloadCustomer   `json:"customer"`
	Reference        DocumentReference `json:"reference"`
	CorrectionCode   string            `json:"correction_code"`
	CorrectionReason string            `json:"correction_reason"`
	ChargeAmount     float64           `json:"charge_amount"`
	TaxRate          float64           `json:"tax_rate"`
	TaxAmount        float64           `json:"tax_amount"`
	BaseAmount       float64           `json:"base_amount"`
}

// PayloadEnvelope é o envelope etiquetado persistido na fila: o tipo do
// documento mais o payload serializado correspondente. Permite validar a
// estrutura por tipo ao invés de inspecionar JSON cru.
type PayloadEnvelope struct {
	Kind    DocumentKind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// EncodePayload serializa um payload no envelope etiquetado
func EncodePayload(kind DocumentKind, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar payload: %w", err)
	}
	env := PayloadEnvelope{Kind: kind, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope desserializa o envelope etiquetado persistido
func DecodeEnvelope(data []byte) (*PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("falha ao desserializar envelope: %w", err)
	}
	if !env.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	return &env, nil
}
