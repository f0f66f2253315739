package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// UsageMeter incrementa os contadores mensais de documentos aceitos.
// É chamado pelo worker após cada aceitação do provedor.
type UsageMeter struct {
	subscriptions SubscriptionRepository
	usage         UsageRepository
	logger        logger.Logger
	now           func() time.Time
}

// NewUsageMeter cria uma nova instância de UsageMeter
func NewUsageMeter(subscriptions SubscriptionRepository, usage UsageRepository, logger logger.Logger) *UsageMeter {
	return &UsageMeter{
		subscriptions: subscriptions,
		usage:         usage,
		logger:        logger,
		now:           time.Now,
	}
}

// Increment registra um documento aceito no contador do mês corrente.
// Tenant sem assinatura vigente não é medido: loga e segue, porque a
// ausência de medição nunca pode bloquear um documento legalmente aceito.
func (m *UsageMeter) Increment(ctx context.Context, tenantID string, kind UsageKind) error {
	switch kind {
	case UsagePOS, UsageInvoice, UsageNotes, UsageSupportDocs:
	default:
		return ErrInvalidUsageKind
	}

	now := m.now()

	_, err := m.subscriptions.FindActiveByTenant(ctx, tenantID, now)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			m.logger.Info("tenant sem assinatura vigente, uso não medido", "tenant_id", tenantID, "kind", string(kind))
			return nil
		}
		return fmt.Errorf("falha ao buscar assinatura do tenant: %w", err)
	}

	if err := m.usage.IncrementUsage(ctx, tenantID, kind, now); err != nil {
		return fmt.Errorf("falha ao incrementar uso: %w", err)
	}

	return nil
}
