package fiscal

import (
	"time"

	"github.com/google/uuid"
)

// Configuration contém a configuração de faturação eletrônica de um tenant:
// a resolução DIAN vigente, o prefixo autorizado e as credenciais do
// provedor tecnológico.
type Configuration struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Enabled  bool   `json:"enabled"`

	// Resolução de numeração autorizada pela DIAN
	ResolutionNumber string `json:"resolution_number"`
	Prefix           string `json:"prefix"`
	StartingNumber   int64  `json:"starting_number"`
	RangeEnd         *int64 `json:"range_end,omitempty"`

	// Resolução para documentos de suporte (compras a fornecedores não
	// obrigados a faturar). Opcional: nem todo tenant emite DS.
	SupportDocResolution string `json:"support_doc_resolution,omitempty"`
	SupportDocPrefix     string `json:"support_doc_prefix,omitempty"`

	// Credenciais do provedor tecnológico
	ProviderURL    string `json:"provider_url"`
	ProviderKey    string `json:"provider_key"`
	ProviderSecret string `json:"-"` // Não expor ao serializar para JSON
	CompanyNIT     string `json:"company_nit"`

	// Certificado de assinatura digital (.p12) validado no upload
	CertificateData      []byte     `json:"-"`
	CertificatePassword  string     `json:"-"`
	CertificateSubject   string     `json:"certificate_subject,omitempty"`
	CertificateExpiresAt *time.Time `json:"certificate_expires_at,omitempty"`

	// Tributação padrão do tenant (percentual de IVA aplicado às linhas)
	TaxRate float64 `json:"tax_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConfiguration cria uma nova configuração de faturação para um tenant
func NewConfiguration(tenantID string) (*Configuration, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	now := time.Now()
	return &Configuration{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Enabled:   false,
		TaxRate:   19,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ConfigureResolution configura a resolução DIAN do tenant
func (c *Configuration) ConfigureResolution(resolutionNumber, prefix string, startingNumber int64, rangeEnd *int64) error {
	if resolutionNumber == "" {
		return ErrEmptyResolution
	}
	if prefix == "" {
		return ErrEmptyPrefix
	}
	if startingNumber < 0 {
		return ErrInvalidStartingNumber
	}
	if rangeEnd != nil && *rangeEnd <= startingNumber {
		return ErrInvalidRange
	}

	c.ResolutionNumber = resolutionNumber
	c.Prefix = prefix
	c.StartingNumber = startingNumber
	c.RangeEnd = rangeEnd
	c.UpdatedAt = time.Now()
	return nil
}

// ConfigureProvider configura as credenciais do provedor tecnológico
func (c *Configuration) ConfigureProvider(url, key, secret, companyNIT string) error {
	if url == "" || key == "" || secret == "" {
		return ErrMissingProviderCredentials
	}
	if companyNIT == "" {
		return ErrEmptyCompanyNIT
	}

	c.ProviderURL = url
	c.ProviderKey = key
	c.ProviderSecret = secret
	c.CompanyNIT = companyNIT
	c.UpdatedAt = time.Now()
	return nil
}

// ConfigureSupportDocs configura a resolução de documentos de suporte
func (c *Configuration) ConfigureSupportDocs(resolutionNumber, prefix string) {
	c.SupportDocResolution = resolutionNumber
	c.SupportDocPrefix = prefix
	c.UpdatedAt = time.Now()
}

// AttachCertificate armazena o certificado de assinatura digital já
// validado. A validação do PKCS12 (senha, chave, vigência) acontece antes,
// no upload.
func (c *Configuration) AttachCertificate(data []byte, password, subject string, expiresAt time.Time) {
	c.CertificateData = data
	c.CertificatePassword = password
	c.CertificateSubject = subject
	c.CertificateExpiresAt = &expiresAt
	c.UpdatedAt = time.Now()
}

// SetTaxRate define o percentual de IVA padrão do tenant
func (c *Configuration) SetTaxRate(rate float64) error {
	if rate < 0 || rate > 100 {
		return ErrInvalidTaxRate
	}
	c.TaxRate = rate
	c.UpdatedAt = time.Now()
	return nil
}

// Enable ativa a emissão de documentos eletrônicos para o tenant.
// Exige resolução e credenciais do provedor configuradas.
func (c *Configuration) Enable() error {
	if c.ResolutionNumber == "" || c.Prefix == "" {
		return ErrConfigurationIncomplete
	}
	if c.ProviderURL == "" || c.ProviderKey == "" || c.ProviderSecret == "" {
		return ErrMissingProviderCredentials
	}
	c.Enabled = true
	c.UpdatedAt = time.Now()
	return nil
}

// Disable desativa a emissão de documentos eletrônicos
func (c *Configuration) Disable() {
	c.Enabled = false
	c.UpdatedAt = time.Now()
}

// ResolutionFor retorna a resolução e o prefixo aplicáveis a um tipo de
// documento. Documentos de suporte usam resolução própria quando
// configurada.
func (c *Configuration) ResolutionFor(kind DocumentKind) (resolutionNumber, prefix string, err error) {
	switch kind {
	case KindSupportDoc, KindSupportAdjustment:
		if c.SupportDocResolution == "" || c.SupportDocPrefix == "" {
			return "", "", ErrConfigurationIncomplete
		}
		return c.SupportDocResolution, c.SupportDocPrefix, nil
	default:
		if c.ResolutionNumber == "" || c.Prefix == "" {
			return "", "", ErrConfigurationIncomplete
		}
		return c.ResolutionNumber, c.Prefix, nil
	}
}
