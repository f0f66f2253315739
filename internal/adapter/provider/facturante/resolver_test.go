package facturante

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

type memConfigs struct {
	configs map[string]*fiscal.Configuration
}

func (m *memConfigs) Create(_ context.Context, config *fiscal.Configuration) error {
	m.configs[config.TenantID] = config
	return nil
}

func (m *memConfigs) Update(_ context.Context, config *fiscal.Configuration) error {
	m.configs[config.TenantID] = config
	return nil
}

func (m *memConfigs) FindByTenant(_ context.Context, tenantID string) (*fiscal.Configuration, error) {
	config, ok := m.configs[tenantID]
	if !ok {
		return nil, fiscal.ErrConfigurationNotFound
	}
	return config, nil
}

func enabledConfiguration(t *testing.T, tenantID string) *fiscal.Configuration {
	t.Helper()
	config, err := fiscal.NewConfiguration(tenantID)
	require.NoError(t, err)
	require.NoError(t, config.ConfigureResolution("18760000001", "SETP", 1, nil))
	require.NoError(t, config.ConfigureProvider("https://provider.test", "key", "secret", "900123456"))
	require.NoError(t, config.Enable())
	return config
}

func TestProviderForTenant(t *testing.T) {
	configs := &memConfigs{configs: map[string]*fiscal.Configuration{}}
	configs.configs["tenant-1"] = enabledConfiguration(t, "tenant-1")
	resolver := NewResolver(configs, logger.NewLogger())

	provider, err := resolver.ProviderForTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.NotNil(t, provider)
}

func TestProviderForTenantDisabled(t *testing.T) {
	configs := &memConfigs{configs: map[string]*fiscal.Configuration{}}
	config := enabledConfiguration(t, "tenant-1")
	config.Disable()
	configs.configs["tenant-1"] = config
	resolver := NewResolver(configs, logger.NewLogger())

	_, err := resolver.ProviderForTenant(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, fiscal.ErrProviderDisabled)
}

func TestProviderForTenantIncompleteCredentials(t *testing.T) {
	configs := &memConfigs{configs: map[string]*fiscal.Configuration{}}
	config := enabledConfiguration(t, "tenant-1")
	config.ProviderSecret = ""
	configs.configs["tenant-1"] = config
	resolver := NewResolver(configs, logger.NewLogger())

	_, err := resolver.ProviderForTenant(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, fiscal.ErrConfigurationIncomplete)
}

func TestProviderForTenantWithoutConfiguration(t *testing.T) {
	configs := &memConfigs{configs: map[string]*fiscal.Configuration{}}
	resolver := NewResolver(configs, logger.NewLogger())

	_, err := resolver.ProviderForTenant(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, fiscal.ErrConfigurationNotFound)
}
