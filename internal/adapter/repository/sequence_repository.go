package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// SequenceRepository implementa fiscal.SequenceRepository sobre a tabela
// public.sequence_counters. Toda alocação acontece dentro de uma única
// transação curta com SELECT ... FOR UPDATE: chamadores concorrentes para a
// mesma chave serializam no lock da linha e nunca recebem o mesmo número.
type SequenceRepository struct {
	db       *database.PostgresDB
	configs  fiscal.ConfigurationRepository
	resolver fiscal.ProviderResolver
}

// NewSequenceRepository cria uma nova instância de SequenceRepository.
// O resolver é usado apenas na primeira alocação de uma chave, quando o
// tenant não configurou número inicial e o último emitido precisa ser
// consultado no provedor.
func NewSequenceRepository(db *database.PostgresDB, configs fiscal.ConfigurationRepository, resolver fiscal.ProviderResolver) fiscal.SequenceRepository {
	return &SequenceRepository{
		db:       db,
		configs:  configs,
		resolver: resolver,
	}
}

// NextNumber implementa fiscal.SequenceRepository.NextNumber
func (r *SequenceRepository) NextNumber(ctx context.Context, tenantID, resolutionNumber, prefix string) (int64, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return 0, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	counter, err := r.lockCounter(ctx, tx, tenantID, resolutionNumber, prefix)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, err
		}
		counter, err = r.initCounter(ctx, tx, tenantID, resolutionNumber, prefix)
		if err != nil {
			return 0, err
		}
	}

	next, err := counter.Advance()
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `UPDATE public.sequence_counters
		SET current_number = $4, updated_at = $5
		WHERE tenant_id = $1 AND resolution_number = $2 AND prefix = $3`,
		tenantID, resolutionNumber, prefix, counter.CurrentNumber, counter.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("falha ao avançar contador de sequência: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("falha ao fazer commit da alocação: %w", err)
	}
	return next, nil
}

// lockCounter busca o contador segurando o lock pessimista da linha
func (r *SequenceRepository) lockCounter(ctx context.Context, tx pgx.Tx, tenantID, resolutionNumber, prefix string) (*fiscal.SequenceCounter, error) {
	counter := &fiscal.SequenceCounter{
		TenantID:         tenantID,
		ResolutionNumber: resolutionNumber,
		Prefix:           prefix,
	}
	err := tx.QueryRow(ctx, `SELECT current_number, range_end, updated_at
		FROM public.sequence_counters
		WHERE tenant_id = $1 AND resolution_number = $2 AND prefix = $3
		FOR UPDATE`,
		tenantID, resolutionNumber, prefix).Scan(&counter.CurrentNumber, &counter.RangeEnd, &counter.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("falha ao buscar contador de sequência: %w", err)
	}
	return counter, nil
}

// initCounter cria o contador na primeira alocação de uma chave. O ponto de
// partida vem do número inicial configurado do tenant ou, na falta dele, do
// último número conhecido pelo provedor. O INSERT usa ON CONFLICT DO NOTHING
// para tolerar uma corrida de inicialização: quem perder a corrida recarrega
// a linha do vencedor sob lock.
func (r *SequenceRepository) initCounter(ctx context.Context, tx pgx.Tx, tenantID, resolutionNumber, prefix string) (*fiscal.SequenceCounter, error) {
	start, rangeEnd, err := r.startingPoint(ctx, tenantID, resolutionNumber, prefix)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `INSERT INTO public.sequence_counters
		(tenant_id, resolution_number, prefix, current_number, range_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tenant_id, resolution_number, prefix) DO NOTHING`,
		tenantID, resolutionNumber, prefix, start, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("falha ao inicializar contador de sequência: %w", err)
	}

	counter, err := r.lockCounter(ctx, tx, tenantID, resolutionNumber, prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("falha ao inicializar contador de sequência: linha concorrente desapareceu")
		}
		return nil, err
	}
	return counter, nil
}

// startingPoint decide de onde o contador parte: o número inicial
// configurado menos um, ou o último número já emitido segundo o provedor
func (r *SequenceRepository) startingPoint(ctx context.Context, tenantID, resolutionNumber, prefix string) (int64, *int64, error) {
	config, err := r.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		return 0, nil, fmt.Errorf("falha ao buscar configuração do tenant: %w", err)
	}

	var rangeEnd *int64
	if config.ResolutionNumber == resolutionNumber {
		rangeEnd = config.RangeEnd
	}

	if config.StartingNumber > 0 {
		return config.StartingNumber - 1, rangeEnd, nil
	}

	provider, err := r.resolver.ProviderForTenant(ctx, tenantID)
	if err != nil {
		return 0, nil, err
	}
	last, err := provider.GetLastDocument(ctx, resolutionNumber, prefix)
	if err != nil {
		return 0, nil, fmt.Errorf("falha ao consultar último número no provedor: %w", err)
	}
	return last, rangeEnd, nil
}
