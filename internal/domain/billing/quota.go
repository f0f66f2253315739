package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// QuotaService verifica se um tenant pode emitir mais um documento no
// período de cobrança corrente. A verificação é consultiva: acontece no
// enfileiramento, não no envio.
type QuotaService struct {
	subscriptions SubscriptionRepository
	usage         UsageRepository
	logger        logger.Logger
	now           func() time.Time
}

// NewQuotaService cria uma nova instância de QuotaService
func NewQuotaService(subscriptions SubscriptionRepository, usage UsageRepository, logger logger.Logger) *QuotaService {
	return &QuotaService{
		subscriptions: subscriptions,
		usage:         usage,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckQuota decide se o tenant pode emitir mais um documento neste mês.
//
// Sem assinatura vigente a emissão é permitida sem medição: a cobrança de
// cota é opt-in por tenant, decisão de produto. Assinatura com pacote
// irresolvível nega por segurança (fail closed). Acima da franquia só
// permite quando a política é allow_and_charge com preço de excedente
// configurado, sinalizando Overage para a camada de cobrança.
func (s *QuotaService) CheckQuota(ctx context.Context, tenantID string) (*QuotaCheckResult, error) {
	now := s.now()

	sub, err := s.subscriptions.FindActiveByTenant(ctx, tenantID, now)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return &QuotaCheckResult{
				Allowed: true,
				Reason:  ReasonNoSubscription,
			}, nil
		}
		return nil, fmt.Errorf("falha ao buscar assinatura do tenant: %w", err)
	}

	pkg, err := s.subscriptions.FindPackage(ctx, sub.PackageID)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			s.logger.Error("pacote da assinatura não encontrado", "tenant_id", tenantID, "package_id", sub.PackageID)
			return &QuotaCheckResult{
				Allowed: false,
				Reason:  ReasonPackageNotFound,
			}, nil
		}
		return nil, fmt.Errorf("falha ao buscar pacote da assinatura: %w", err)
	}

	period, err := s.usage.FindPeriod(ctx, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar uso do período: %w", err)
	}

	used := period.Used()
	limit := pkg.IncludedDocuments
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	result := &QuotaCheckResult{
		Used:          used,
		Limit:         limit,
		Remaining:     remaining,
		OveragePolicy: &pkg.OveragePolicy,
	}

	if used < limit {
		result.Allowed = true
		return result, nil
	}

	if pkg.OveragePolicy == OverageAllowAndCharge && pkg.OveragePrice != nil {
		result.Allowed = true
		result.Overage = true
		return result, nil
	}

	result.Allowed = false
	result.Reason = ReasonQuotaExceeded
	return result, nil
}
