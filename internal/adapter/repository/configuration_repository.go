package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// ConfigurationRepository implementa fiscal.ConfigurationRepository
type ConfigurationRepository struct {
	db *database.PostgresDB
}

// NewConfigurationRepository cria uma nova instância de ConfigurationRepository
func NewConfigurationRepository(db *database.PostgresDB) fiscal.ConfigurationRepository {
	return &ConfigurationRepository{
		db: db,
	}
}

const configurationColumns = `id, tenant_id, enabled, resolution_number, prefix, starting_number, range_end,
	support_doc_resolution, support_doc_prefix, provider_url, provider_key, provider_secret,
	company_nit, certificate_data, certificate_password, certificate_subject, certificate_expires_at,
	tax_rate, created_at, updated_at`

// Create implementa fiscal.ConfigurationRepository.Create
func (r *ConfigurationRepository) Create(ctx context.Context, config *fiscal.Configuration) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`INSERT INTO public.fiscal_configurations (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`, configurationColumns)

	_, err = conn.Exec(ctx, query,
		config.ID, config.TenantID, config.Enabled, config.ResolutionNumber, config.Prefix, config.StartingNumber, config.RangeEnd,
		nullString(config.SupportDocResolution), nullString(config.SupportDocPrefix),
		nullString(config.ProviderURL), nullString(config.ProviderKey), nullString(config.ProviderSecret),
		nullString(config.CompanyNIT),
		config.CertificateData, nullString(config.CertificatePassword), nullString(config.CertificateSubject), config.CertificateExpiresAt,
		config.TaxRate, config.CreatedAt, config.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao inserir configuração de faturação: %w", err)
	}
	return nil
}

// Update implementa fiscal.ConfigurationRepository.Update
func (r *ConfigurationRepository) Update(ctx context.Context, config *fiscal.Configuration) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE public.fiscal_configurations SET
		enabled = $2, resolution_number = $3, prefix = $4, starting_number = $5, range_end = $6,
		support_doc_resolution = $7, support_doc_prefix = $8,
		provider_url = $9, provider_key = $10, provider_secret = $11, company_nit = $12,
		certificate_data = $13, certificate_password = $14, certificate_subject = $15, certificate_expires_at = $16,
		tax_rate = $17, updated_at = $18
		WHERE id = $1`,
		config.ID, config.Enabled, config.ResolutionNumber, config.Prefix, config.StartingNumber, config.RangeEnd,
		nullString(config.SupportDocResolution), nullString(config.SupportDocPrefix),
		nullString(config.ProviderURL), nullString(config.ProviderKey), nullString(config.ProviderSecret),
		nullString(config.CompanyNIT),
		config.CertificateData, nullString(config.CertificatePassword), nullString(config.CertificateSubject), config.CertificateExpiresAt,
		config.TaxRate, config.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao atualizar configuração de faturação: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fiscal.ErrConfigurationNotFound
	}
	return nil
}

// FindByTenant implementa fiscal.ConfigurationRepository.FindByTenant
func (r *ConfigurationRepository) FindByTenant(ctx context.Context, tenantID string) (*fiscal.Configuration, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT %s FROM public.fiscal_configurations WHERE tenant_id = $1", configurationColumns)

	var config fiscal.Configuration
	var supportDocResolution, supportDocPrefix, providerURL, providerKey, providerSecret, companyNIT *string
	var certificatePassword, certificateSubject *string
	err = conn.QueryRow(ctx, query, tenantID).Scan(
		&config.ID, &config.TenantID, &config.Enabled, &config.ResolutionNumber, &config.Prefix, &config.StartingNumber, &config.RangeEnd,
		&supportDocResolution, &supportDocPrefix, &providerURL, &providerKey, &providerSecret,
		&companyNIT, &config.CertificateData, &certificatePassword, &certificateSubject, &config.CertificateExpiresAt,
		&config.TaxRate, &config.CreatedAt, &config.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("falha ao buscar configuração de faturação: %w", err)
	}

	config.SupportDocResolution = derefString(supportDocResolution)
	config.SupportDocPrefix = derefString(supportDocPrefix)
	config.ProviderURL = derefString(providerURL)
	config.ProviderKey = derefString(providerKey)
	config.ProviderSecret = derefString(providerSecret)
	config.CompanyNIT = derefString(companyNIT)
	config.CertificatePassword = derefString(certificatePassword)
	config.CertificateSubject = derefString(certificateSubject)
	return &config, nil
}
