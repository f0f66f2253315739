package fiscal

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DocumentKind define o tipo de documento eletrônico emitido perante a DIAN
type DocumentKind string

const (
	KindPOS               DocumentKind = "POS"
	KindInvoice           DocumentKind = "INVOICE"
	KindPOSCreditNote     DocumentKind = "POS_CREDIT_NOTE"
	KindPOSDebitNote      DocumentKind = "POS_DEBIT_NOTE"
	KindSupportDoc        DocumentKind = "SUPPORT_DOC"
	KindSupportAdjustment DocumentKind = "SUPPORT_ADJUSTMENT"
)

// IsValid verifica se o tipo de documento é conhecido
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindPOS, KindInvoice, KindPOSCreditNote, KindPOSDebitNote, KindSupportDoc, KindSupportAdjustment:
		return true
	}
	return false
}

// SourceType define a origem comercial do documento
type SourceType string

const (
	SourceSale       SourceType = "sale"
	SourceRefund     SourceType = "refund"
	SourcePurchase   SourceType = "purchase"
	SourceAdjustment SourceType = "adjustment"
)

// Status representa o estado de um documento na fila de emissão
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSent     Status = "SENT"
	StatusRetry    Status = "RETRY"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusFailed   Status = "FAILED"
)

// IsTerminal indica se o status é final (o documento não volta à fila)
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusFailed
}

// DefaultMaxRetries é o número padrão de tentativas automáticas de envio
const DefaultMaxRetries = 3

// QueueEntry representa uma tentativa de emissão de documento legal.
// A linha é imutável quanto ao número alocado e nunca é removida
// (trilha de auditoria).
type QueueEntry struct {
	ID               string       `json:"id"`
	TenantID         string       `json:"tenant_id"`
	Kind             DocumentKind `json:"kind"`
	SourceType       SourceType   `json:"source_type"`
	SourceID         string       `json:"source_id"`
	OrderNumber      string       `json:"order_number,omitempty"`
	ResolutionNumber string       `json:"resolution_number"`
	Prefix           string       `json:"prefix"`
	DocumentNumber   int64        `json:"document_number"`
	Status           Status       `json:"status"`
	RetryCount       int          `json:"retry_count"`
	MaxRetries       int          `json:"max_retries"`
	RequestJSON      []byte       `json:"request_json,omitempty"`
	ResponseJSON     []byte       `json:"response_json,omitempty"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	TrackID          string       `json:"track_id,omitempty"`
	CUFE             string       `json:"cufe,omitempty"`
	QRCode           string       `json:"qr_code,omitempty"`
	SubmittedAt      *time.Time   `json:"submitted_at,omitempty"`
	AcceptedAt       *time.Time   `json:"accepted_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewQueueEntry cria uma nova entrada na fila com status PENDING
func NewQueueEntry(tenantID string, kind DocumentKind, sourceType SourceType, sourceID, orderNumber, resolutionNumber, prefix string, documentNumber int64) (*QueueEntry, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if sourceID == "" {
		return nil, ErrEmptySourceID
	}
	if documentNumber <= 0 {
		return nil, ErrInvalidDocumentNumber
	}

	now := time.Now()
	return &QueueEntry{
		ID:               uuid.New().String(),
		TenantID:         tenantID,
		Kind:             kind,
		SourceType:       sourceType,
		SourceID:         sourceID,
		OrderNumber:      orderNumber,
		ResolutionNumber: resolutionNumber,
		Prefix:           prefix,
		DocumentNumber:   documentNumber,
		Status:           StatusPending,
		RetryCount:       0,
		MaxRetries:       DefaultMaxRetries,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// FullNumber retorna o número completo do documento (prefixo + consecutivo)
func (e *QueueEntry) FullNumber() string {
	return e.Prefix + strconv.FormatInt(e.DocumentNumber, 10)
}

// MarkSent registra o envio ao provedor. É chamado antes da chamada de
// rede, para que uma queda no meio do envio fique observável e seja
// naturalmente retentada.
func (e *QueueEntry) MarkSent(requestJSON []byte) {
	now := time.Now()
	e.Status = StatusSent
	e.RequestJSON = requestJSON
	e.SubmittedAt = &now
	e.UpdatedAt = now
}

// MarkAccepted registra a aceitação do documento pelo provedor
func (e *QueueEntry) MarkAccepted(trackID, cufe, qrCode string, responseJSON []byte) {
	now := time.Now()
	e.Status = StatusAccepted
	e.TrackID = trackID
	e.CUFE = cufe
	e.QRCode = qrCode
	e.ResponseJSON = responseJSON
	e.AcceptedAt = &now
	e.UpdatedAt = now
}

// MarkFailure registra uma falha de envio. Enquanto houver tentativas
// disponíveis o documento volta para RETRY; esgotadas as tentativas, uma
// rejeição explícita do provedor termina em REJECTED e uma falha
// transitória em FAILED.
func (e *QueueEntry) MarkFailure(errMsg string, responseJSON []byte, rejected bool) {
	e.RetryCount++
	e.ErrorMessage = errMsg
	if responseJSON != nil {
		e.ResponseJSON = responseJSON
	}
	if e.RetryCount < e.MaxRetries {
		e.Status = StatusRetry
	} else if rejected {
		e.Status = StatusRejected
	} else {
		e.Status = StatusFailed
	}
	e.UpdatedAt = time.Now()
}

// MarkFailed coloca o documento diretamente em FAILED (falha não retentável)
func (e *QueueEntry) MarkFailed(errMsg string) {
	e.Status = StatusFailed
	e.ErrorMessage = errMsg
	e.UpdatedAt = time.Now()
}

// ResetForRetry reinicia manualmente um documento FAILED/REJECTED para
// PENDING, zerando o contador de tentativas. O número já alocado nunca é
// realocado.
func (e *QueueEntry) ResetForRetry() error {
	if e.Status != StatusFailed && e.Status != StatusRejected {
		return ErrDocumentNotRetryable
	}
	e.Status = StatusPending
	e.RetryCount = 0
	e.ErrorMessage = ""
	e.UpdatedAt = time.Now()
	return nil
}

// FileKind define o tipo de arquivo armazenado para um documento
type FileKind string

const (
	FilePDF FileKind = "pdf"
	FileXML FileKind = "xml"
)

// DocumentFile representa um artefato (PDF/XML) retornado pelo provedor
type DocumentFile struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Kind       FileKind  `json:"kind"`
	Content    []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocumentFile cria um novo arquivo de documento
func NewDocumentFile(documentID string, kind FileKind, content []byte) *DocumentFile {
	return &DocumentFile{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Kind:       kind,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

// SequenceCounter guarda o último número emitido para a chave
// (tenant, resolução, prefixo). O número é estritamente crescente e nunca
// é reutilizado, mesmo que o documento correspondente falhe depois.
type SequenceCounter struct {
	TenantID         string    `json:"tenant_id"`
	ResolutionNumber string    `json:"resolution_number"`
	Prefix           string    `json:"prefix"`
	CurrentNumber    int64     `json:"current_number"`
	RangeEnd         *int64    `json:"range_end,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Advance calcula e aplica o próximo número do contador. Se o próximo
// número ultrapassar o fim do intervalo autorizado pela resolução, retorna
// ErrRangeExceeded sem alterar o contador.
func (c *SequenceCounter) Advance() (int64, error) {
	next := c.CurrentNumber + 1
	if c.RangeEnd != nil && next > *c.RangeEnd {
		return 0, ErrRangeExceeded
	}
	c.CurrentNumber = next
	c.UpdatedAt = time.Now()
	return next, nil
}
