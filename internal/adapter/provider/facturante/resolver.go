package facturante

import (
	"context"
	"fmt"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// Resolver implementa fiscal.ProviderResolver: monta um Client com as
// credenciais configuradas do tenant
type Resolver struct {
	configs fiscal.ConfigurationRepository
	log     logger.Logger
}

// NewResolver cria uma nova instância de Resolver
func NewResolver(configs fiscal.ConfigurationRepository, log logger.Logger) fiscal.ProviderResolver {
	return &Resolver{
		configs: configs,
		log:     log,
	}
}

// ProviderForTenant implementa fiscal.ProviderResolver.ProviderForTenant
func (r *Resolver) ProviderForTenant(ctx context.Context, tenantID string) (fiscal.Provider, error) {
	config, err := r.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("falha ao resolver provedor do tenant: %w", err)
	}
	if !config.Enabled {
		return nil, fiscal.ErrProviderDisabled
	}
	if config.ProviderURL == "" || config.ProviderKey == "" || config.ProviderSecret == "" {
		return nil, fiscal.ErrConfigurationIncomplete
	}
	return NewClient(config.ProviderURL, config.ProviderKey, config.ProviderSecret, config.CompanyNIT, r.log), nil
}
