package fiscal

import "context"

// ProviderResponse é o envelope uniforme de resposta do provedor
// tecnológico. Em caso de sucesso, Data carrega o track ID e o CUFE/CUDE
// (a impressão digital legal do documento aceito).
type ProviderResponse struct {
	Success bool                  `json:"success"`
	Data    *ProviderResponseData `json:"data,omitempty"`
	Errors  []string              `json:"errors,omitempty"`
}

// ProviderResponseData carrega os artefatos retornados na aceitação
type ProviderResponseData struct {
	TrackID string `json:"track_id"`
	CUFE    string `json:"cufe"`
	QRCode  string `json:"qr_code,omitempty"`
	Number  string `json:"number,omitempty"`
}

// ErrorMessage concatena as mensagens de erro da resposta
func (r *ProviderResponse) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return "resposta do provedor sem detalhes de erro"
	}
	msg := r.Errors[0]
	for _, e := range r.Errors[1:] {
		msg += "; " + e
	}
	return msg
}

// Provider abstrai o provedor tecnológico de faturação eletrônica,
// independente do fornecedor concreto.
type Provider interface {
	// Submit envia uma fatura eletrônica ou documento equivalente a POS
	Submit(ctx context.Context, payload *InvoicePayload) (*ProviderResponse, error)

	// SubmitCreditNote envia uma nota de crédito
	SubmitCreditNote(ctx context.Context, payload *CreditNotePayload) (*ProviderResponse, error)

	// SubmitDebitNote envia uma nota de débito
	SubmitDebitNote(ctx context.Context, payload *DebitNotePayload) (*ProviderResponse, error)

	// GetLastDocument consulta o último número emitido sob a resolução e
	// o prefixo informados. Usado para inicializar contadores de sequência.
	GetLastDocument(ctx context.Context, resolutionNumber, prefix string) (int64, error)

	// GetStatusByTrackID consulta o estado de um documento já enviado
	GetStatusByTrackID(ctx context.Context, trackID string) (*ProviderResponse, error)

	// DownloadPDF baixa a representação gráfica do documento aceito
	DownloadPDF(ctx context.Context, trackID string) ([]byte, error)
}

// ProviderResolver resolve o Provider configurado para um tenant.
// Retorna ErrProviderDisabled quando o tenant não tem faturação
// eletrônica habilitada.
type ProviderResolver interface {
	ProviderForTenant(ctx context.Context, tenantID string) (Provider, error)
}
