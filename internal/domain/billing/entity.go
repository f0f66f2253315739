package billing

import (
	"errors"
	"time"
)

var (
	ErrPackageNotFound      = errors.New("pacote de assinatura não encontrado")
	ErrSubscriptionNotFound = errors.New("assinatura não encontrada")
	ErrInvalidUsageKind     = errors.New("tipo de uso inválido")
)

// OveragePolicy define o comportamento quando a cota mensal é excedida
type OveragePolicy string

const (
	// OverageBlock bloqueia novas emissões até o próximo período
	OverageBlock OveragePolicy = "block"
	// OverageAllowAndCharge permite emitir cobrando o excedente por documento
	OverageAllowAndCharge OveragePolicy = "allow_and_charge"
)

// Package descreve um pacote comercial: a franquia mensal de documentos e
// a política de excedente. Somente leitura para o módulo fiscal.
type Package struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	IncludedDocuments int           `json:"included_documents"`
	OveragePolicy     OveragePolicy `json:"overage_policy"`
	OveragePrice      *float64      `json:"overage_price,omitempty"`
	MonthlyPrice      float64       `json:"monthly_price"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Subscription vincula um tenant a um pacote durante um ciclo de cobrança.
// Um tenant tem no máximo uma assinatura ativa por ciclo.
type Subscription struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	PackageID  string    `json:"package_id"`
	CycleStart time.Time `json:"cycle_start"`
	CycleEnd   time.Time `json:"cycle_end"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CoversAt indica se o ciclo da assinatura cobre o instante informado
// (limites inclusivos)
func (s *Subscription) CoversAt(t time.Time) bool {
	return s.Active && !t.Before(s.CycleStart) && !t.After(s.CycleEnd)
}

// UsageKind identifica o contador de uso incrementado por documento aceito
type UsageKind string

const (
	UsagePOS         UsageKind = "pos"
	UsageInvoice     UsageKind = "invoice"
	UsageNotes       UsageKind = "notes"
	UsageSupportDocs UsageKind = "support_docs"
)

// UsagePeriod acumula os contadores de documentos aceitos de um tenant em
// um mês calendário. Uma linha por tenant por mês, criada na primeira
// emissão aceita do mês.
type UsagePeriod struct {
	TenantID         string    `json:"tenant_id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	POSCount         int       `json:"pos_count"`
	InvoiceCount     int       `json:"invoice_count"`
	NotesCount       int       `json:"notes_count"`
	SupportDocsCount int       `json:"support_docs_count"`
	Total            int       `json:"total"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Used retorna o total de documentos consumidos no período
func (u *UsagePeriod) Used() int {
	if u == nil {
		return 0
	}
	return u.Total
}

// PeriodBounds retorna o início e o fim (exclusivo) do mês calendário que
// contém o instante informado
func PeriodBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Motivos retornados por CheckQuota
const (
	ReasonNoSubscription  = "sem_assinatura"
	ReasonPackageNotFound = "pacote_nao_encontrado"
	ReasonQuotaExceeded   = "quota_excedida"
)

// QuotaCheckResult é o resultado da verificação de cota de um tenant
type QuotaCheckResult struct {
	Allowed       bool           `json:"allowed"`
	Reason        string         `json:"reason,omitempty"`
	Used          int            `json:"used"`
	Limit         int            `json:"limit"`
	Remaining     int            `json:"remaining"`
	OveragePolicy *OveragePolicy `json:"overage_policy,omitempty"`
	// Overage indica que a emissão foi permitida acima da franquia e que o
	// excedente deve ser cobrado
	Overage bool `json:"overage,omitempty"`
}
