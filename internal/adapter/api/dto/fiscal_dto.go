package dto

import (
	"time"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
)

// EnqueueDocumentRequest representa a requisição de enfileiramento de um
// documento eletrônico
type EnqueueDocumentRequest struct {
	Kind        string `json:"kind" binding:"required"`
	SourceType  string `json:"source_type" binding:"required"`
	SourceID    string `json:"source_id" binding:"required"`
	OrderNumber string `json:"order_number"`
}

// EnqueueDocumentResponse representa o documento criado na fila
type EnqueueDocumentResponse struct {
	ID             string `json:"id"`
	DocumentNumber int64  `json:"document_number"`
	FullNumber     string `json:"full_number"`
	Status         string `json:"status"`
}

// DocumentFileResponse representa um artefato armazenado do documento
type DocumentFileResponse struct {
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentResponse representa a estrutura de dados de resposta para um
// documento da fila
type DocumentResponse struct {
	ID             string                 `json:"id"`
	TenantID       string                 `json:"tenant_id"`
	Kind           string                 `json:"kind"`
	SourceType     string                 `json:"source_type"`
	SourceID       string                 `json:"source_id"`
	OrderNumber    string                 `json:"order_number,omitempty"`
	FullNumber     string                 `json:"full_number"`
	DocumentNumber int64                  `json:"document_number"`
	Status         string                 `json:"status"`
	RetryCount     int                    `json:"retry_count"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	TrackID        string                 `json:"track_id,omitempty"`
	CUFE           string                 `json:"cufe,omitempty"`
	QRCode         string                 `json:"qr_code,omitempty"`
	SubmittedAt    *time.Time             `json:"submitted_at,omitempty"`
	AcceptedAt     *time.Time             `json:"accepted_at,omitempty"`
	Files          []DocumentFileResponse `json:"files,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DocumentListResponse representa a resposta de listagem de documentos
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

// ToDocumentResponse converte um modelo de domínio em uma resposta DTO
func ToDocumentResponse(e *fiscal.QueueEntry, files []fiscal.DocumentFile) DocumentResponse {
	resp := DocumentResponse{
		ID:             e.ID,
		TenantID:       e.TenantID,
		Kind:           string(e.Kind),
		SourceType:     string(e.SourceType),
		SourceID:       e.SourceID,
		OrderNumber:    e.OrderNumber,
		FullNumber:     e.FullNumber(),
		DocumentNumber: e.DocumentNumber,
		Status:         string(e.Status),
		RetryCount:     e.RetryCount,
		ErrorMessage:   e.ErrorMessage,
		TrackID:        e.TrackID,
		CUFE:           e.CUFE,
		QRCode:         e.QRCode,
		SubmittedAt:    e.SubmittedAt,
		AcceptedAt:     e.AcceptedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	for _, f := range files {
		resp.Files = append(resp.Files, DocumentFileResponse{
			Kind:      string(f.Kind),
			CreatedAt: f.CreatedAt,
		})
	}
	return resp
}

// ToDocumentListResponse converte uma lista de documentos para o formato de resposta
func ToDocumentListResponse(entries []*fiscal.QueueEntry, page, pageSize int) DocumentListResponse {
	resp := DocumentListResponse{
		Documents: make([]DocumentResponse, len(entries)),
		Page:      page,
		PageSize:  pageSize,
	}
	for i, e := range entries {
		resp.Documents[i] = ToDocumentResponse(e, nil)
	}
	return resp
}

// ConfigurationRequest representa a requisição de configuração de faturação
// eletrônica de um tenant
type ConfigurationRequest struct {
	ResolutionNumber     string  `json:"resolution_number" binding:"required"`
	Prefix               string  `json:"prefix" binding:"required"`
	StartingNumber       int64   `json:"starting_number"`
	RangeEnd             *int64  `json:"range_end"`
	SupportDocResolution string  `json:"support_doc_resolution"`
	SupportDocPrefix     string  `json:"support_doc_prefix"`
	ProviderURL          string  `json:"provider_url" binding:"required"`
	ProviderKey          string  `json:"provider_key" binding:"required"`
	ProviderSecret       string  `json:"provider_secret" binding:"required"`
	CompanyNIT           string  `json:"company_nit" binding:"required"`
	TaxRate              float64 `json:"tax_rate"`
	Enabled              bool    `json:"enabled"`
}

// ConfigurationResponse representa a configuração de faturação sem as
// credenciais sensíveis
type ConfigurationResponse struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenant_id"`
	Enabled              bool      `json:"enabled"`
	ResolutionNumber     string    `json:"resolution_number"`
	Prefix               string    `json:"prefix"`
	StartingNumber       int64     `json:"starting_number"`
	RangeEnd             *int64    `json:"range_end,omitempty"`
	SupportDocResolution string    `json:"support_doc_resolution,omitempty"`
	SupportDocPrefix     string    `json:"support_doc_prefix,omitempty"`
	ProviderURL          string     `json:"provider_url"`
	CompanyNIT           string     `json:"company_nit"`
	CertificateSubject   string     `json:"certificate_subject,omitempty"`
	CertificateExpiresAt *time.Time `json:"certificate_expires_at,omitempty"`
	TaxRate              float64    `json:"tax_rate"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// CertificateResponse resume o certificado digital validado no upload
type CertificateResponse struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}

// ToConfigurationResponse converte um modelo de domínio em uma resposta DTO
func ToConfigurationResponse(c *fiscal.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		ID:                   c.ID,
		TenantID:             c.TenantID,
		Enabled:              c.Enabled,
		ResolutionNumber:     c.ResolutionNumber,
		Prefix:               c.Prefix,
		StartingNumber:       c.StartingNumber,
		RangeEnd:             c.RangeEnd,
		SupportDocResolution: c.SupportDocResolution,
		SupportDocPrefix:     c.SupportDocPrefix,
		ProviderURL:          c.ProviderURL,
		CompanyNIT:           c.CompanyNIT,
		CertificateSubject:   c.CertificateSubject,
		CertificateExpiresAt: c.CertificateExpiresAt,
		TaxRate:              c.TaxRate,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// QuotaResponse representa o resultado da verificação de cota do tenant
type QuotaResponse struct {
	Allowed       bool   `json:"allowed"`
	Reason        string `json:"reason,omitempty"`
	Used          int    `json:"used"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	OveragePolicy string `json:"overage_policy,omitempty"`
	Overage       bool   `json:"overage,omitempty"`
}

// ToQuotaResponse converte o resultado da verificação de cota em resposta DTO
func ToQuotaResponse(r *billing.QuotaCheckResult) QuotaResponse {
	resp := QuotaResponse{
		Allowed:   r.Allowed,
		Reason:    r.Reason,
		Used:      r.Used,
		Limit:     r.Limit,
		Remaining: r.Remaining,
		Overage:   r.Overage,
	}
	if r.OveragePolicy != nil {
		resp.OveragePolicy = string(*r.OveragePolicy)
	}
	return resp
}

// UsageResponse representa os contadores de uso do mês corrente
type UsageResponse struct {
	TenantID         string    `json:"tenant_id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	POSCount         int       `json:"pos_count"`
	InvoiceCount     int       `json:"invoice_count"`
	NotesCount       int       `json:"notes_count"`
	SupportDocsCount int       `json:"support_docs_count"`
	Total            int       `json:"total"`
}

// ToUsageResponse converte um período de uso em resposta DTO. Período nulo
// (sem consumo no mês) vira contadores zerados.
func ToUsageResponse(tenantID string, u *billing.UsagePeriod, at time.Time) UsageResponse {
	if u == nil {
		start, end := billing.PeriodBounds(at)
		return UsageResponse{TenantID: tenantID, PeriodStart: start, PeriodEnd: end}
	}
	return UsageResponse{
		TenantID:         u.TenantID,
		PeriodStart:      u.PeriodStart,
		PeriodEnd:        u.PeriodEnd,
		POSCount:         u.POSCount,
		InvoiceCount:     u.InvoiceCount,
		NotesCount:       u.NotesCount,
		SupportDocsCount: u.SupportDocsCount,
		Total:            u.Total,
	}
}
