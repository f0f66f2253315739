package billing

import (
	"context"
	"time"
)

// SubscriptionRepository define o acesso de leitura a assinaturas e pacotes
type SubscriptionRepository interface {
	// FindActiveByTenant busca a assinatura cujo ciclo cobre o instante
	// informado. Retorna ErrSubscriptionNotFound quando o tenant não tem
	// assinatura vigente.
	FindActiveByTenant(ctx context.Context, tenantID string, at time.Time) (*Subscription, error)

	// FindPackage busca um pacote pelo ID. Retorna ErrPackageNotFound
	// quando inexistente.
	FindPackage(ctx context.Context, packageID string) (*Package, error)
}

// UsageRepository define a persistência dos contadores mensais de uso
type UsageRepository interface {
	// FindPeriod busca a linha de uso do tenant para o mês que contém o
	// instante informado. Retorna nil (sem erro) quando ainda não há
	// consumo no mês.
	FindPeriod(ctx context.Context, tenantID string, at time.Time) (*UsagePeriod, error)

	// IncrementUsage cria ou incrementa atomicamente o contador do mês
	// corrente (upsert): +1 no contador do tipo e +1 no total.
	IncrementUsage(ctx context.Context, tenantID string, kind UsageKind, at time.Time) error
}
