package repository

import (
	"context"
	"errors"

	"github.com/hugohenrick/pos-facturacion/internal/domain/tenant"
	pkgtenant "github.com/hugohenrick/pos-facturacion/pkg/tenant"
)

// TenantValidator implementa a interface para validação de tenant
type TenantValidator struct {
	repository tenant.Repository
}

// NewTenantValidator cria uma nova instância de TenantValidator
func NewTenantValidator(repository tenant.Repository) pkgtenant.TenantValidator {
	return &TenantValidator{
		repository: repository,
	}
}

// ValidateTenant verifica se um tenant existe e está ativo
func (v *TenantValidator) ValidateTenant(tenantID string) (bool, error) {
	if tenantID == "" {
		return false, pkgtenant.ErrTenantNotSpecified
	}

	// Verifica se o tenant existe
	t, err := v.repository.FindByID(context.Background(), tenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return false, nil
		}
		return false, err
	}

	// Verifica se o tenant está ativo
	return t.IsActive(), nil
}
