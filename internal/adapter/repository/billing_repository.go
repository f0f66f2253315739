package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// SubscriptionRepository implementa billing.SubscriptionRepository sobre as
// tabelas public.subscriptions e public.subscription_packages
type SubscriptionRepository struct {
	db *database.PostgresDB
}

// NewSubscriptionRepository cria uma nova instância de SubscriptionRepository
func NewSubscriptionRepository(db *database.PostgresDB) billing.SubscriptionRepository {
	return &SubscriptionRepository{
		db: db,
	}
}

// FindActiveByTenant implementa billing.SubscriptionRepository.FindActiveByTenant
func (r *SubscriptionRepository) FindActiveByTenant(ctx context.Context, tenantID string, at time.Time) (*billing.Subscription, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var s billing.Subscription
	err = conn.QueryRow(ctx, `SELECT id, tenant_id, package_id, cycle_start, cycle_end, active, created_at
		FROM public.subscriptions
		WHERE tenant_id = $1 AND active = true AND cycle_start <= $2 AND cycle_end >= $2
		ORDER BY cycle_start DESC LIMIT 1`,
		tenantID, at).Scan(&s.ID, &s.TenantID, &s.PackageID, &s.CycleStart, &s.CycleEnd, &s.Active, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("falha ao buscar assinatura: %w", err)
	}
	return &s, nil
}

// FindPackage implementa billing.SubscriptionRepository.FindPackage
func (r *SubscriptionRepository) FindPackage(ctx context.Context, packageID string) (*billing.Package, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var p billing.Package
	var policy string
	err = conn.QueryRow(ctx, `SELECT id, name, included_documents, overage_policy, overage_price, monthly_price, created_at
		FROM public.subscription_packages WHERE id = $1`,
		packageID).Scan(&p.ID, &p.Name, &p.IncludedDocuments, &policy, &p.OveragePrice, &p.MonthlyPrice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrPackageNotFound
		}
		return nil, fmt.Errorf("falha ao buscar pacote: %w", err)
	}
	p.OveragePolicy = billing.OveragePolicy(policy)
	return &p, nil
}

// UsageRepository implementa billing.UsageRepository sobre a tabela
// public.usage_periods
type UsageRepository struct {
	db *database.PostgresDB
}

// NewUsageRepository cria uma nova instância de UsageRepository
func NewUsageRepository(db *database.PostgresDB) billing.UsageRepository {
	return &UsageRepository{
		db: db,
	}
}

// FindPeriod implementa billing.UsageRepository.FindPeriod
func (r *UsageRepository) FindPeriod(ctx context.Context, tenantID string, at time.Time) (*billing.UsagePeriod, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	start, _ := billing.PeriodBounds(at)

	var u billing.UsagePeriod
	err = conn.QueryRow(ctx, `SELECT tenant_id, period_start, period_end, pos_count, invoice_count, notes_count, support_docs_count, total, updated_at
		FROM public.usage_periods WHERE tenant_id = $1 AND period_start = $2`,
		tenantID, start).Scan(&u.TenantID, &u.PeriodStart, &u.PeriodEnd, &u.POSCount, &u.InvoiceCount, &u.NotesCount, &u.SupportDocsCount, &u.Total, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("falha ao buscar uso do período: %w", err)
	}
	return &u, nil
}

// IncrementUsage implementa billing.UsageRepository.IncrementUsage. O upsert
// com ON CONFLICT garante o incremento atômico mesmo quando dois workers
// registram aceitações do mesmo tenant no mesmo instante.
func (r *UsageRepository) IncrementUsage(ctx context.Context, tenantID string, kind billing.UsageKind, at time.Time) error {
	column, err := usageColumn(kind)
	if err != nil {
		return err
	}

	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	start, end := billing.PeriodBounds(at)

	query := fmt.Sprintf(`INSERT INTO public.usage_periods
		(tenant_id, period_start, period_end, %s, total, updated_at)
		VALUES ($1, $2, $3, 1, 1, now())
		ON CONFLICT (tenant_id, period_start)
		DO UPDATE SET %s = usage_periods.%s + 1, total = usage_periods.total + 1, updated_at = now()`,
		column, column, column)

	if _, err := conn.Exec(ctx, query, tenantID, start, end); err != nil {
		return fmt.Errorf("falha ao incrementar uso: %w", err)
	}
	return nil
}

// usageColumn mapeia o tipo de uso para a coluna do contador. O nome da
// coluna nunca vem de entrada externa: o switch é exaustivo sobre os tipos
// conhecidos.
func usageColumn(kind billing.UsageKind) (string, error) {
	switch kind {
	case billing.UsagePOS:
		return "pos_count", nil
	case billing.UsageInvoice:
		return "invoice_count", nil
	case billing.UsageNotes:
		return "notes_count", nil
	case billing.UsageSupportDocs:
		return "support_docs_count", nil
	default:
		return "", billing.ErrInvalidUsageKind
	}
}
