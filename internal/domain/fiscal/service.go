package fiscal

import (
	"context"
	"fmt"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// QuotaChecker verifica a cota mensal de documentos de um tenant
type QuotaChecker interface {
	CheckQuota(ctx context.Context, tenantID string) (*billing.QuotaCheckResult, error)
}

// EnqueueParams são os parâmetros de enfileiramento de um documento
type EnqueueParams struct {
	TenantID    string
	Kind        DocumentKind
	SourceType  SourceType
	SourceID    string
	OrderNumber string
}

// EnqueueResult identifica o documento criado e o número legal reservado
type EnqueueResult struct {
	ID             string `json:"id"`
	DocumentNumber int64  `json:"document_number"`
	FullNumber     string `json:"full_number"`
}

// DocumentService é o ponto único de criação e consulta de documentos na
// fila de emissão. O envio em si pertence ao Worker.
type DocumentService struct {
	queue     QueueRepository
	sequences SequenceRepository
	configs   ConfigurationRepository
	quota     QuotaChecker
	metrics   *TransitionMetrics
	logger    logger.Logger
}

// NewDocumentService cria uma nova instância de DocumentService
func NewDocumentService(queue QueueRepository, sequences SequenceRepository, configs ConfigurationRepository, quota QuotaChecker, metrics *TransitionMetrics, logger logger.Logger) *DocumentService {
	return &DocumentService{
		queue:     queue,
		sequences: sequences,
		configs:   configs,
		quota:     quota,
		metrics:   metrics,
		logger:    logger,
	}
}

// Enqueue reserva um número legal e insere um documento PENDING na fila.
//
// Cota negada não é erro: retorna (nil, nil) sem persistir nada e o fluxo
// de venda segue sem documento eletrônico. Uma falha depois da alocação do
// número pode "queimar" um número legal, o que é preferível a emitir o
// mesmo número duas vezes.
func (s *DocumentService) Enqueue(ctx context.Context, params EnqueueParams) (*EnqueueResult, error) {
	config, err := s.configs.FindByTenant(ctx, params.TenantID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar configuração de faturação: %w", err)
	}
	if !config.Enabled {
		return nil, ErrProviderDisabled
	}

	resolutionNumber, prefix, err := config.ResolutionFor(params.Kind)
	if err != nil {
		return nil, err
	}

	check, err := s.quota.CheckQuota(ctx, params.TenantID)
	if err != nil {
		return nil, fmt.Errorf("falha ao verificar cota: %w", err)
	}
	if !check.Allowed {
		s.metrics.RecordQuotaDenied()
		s.logger.Warn("enfileiramento negado por cota",
			"tenant_id", params.TenantID, "kind", string(params.Kind),
			"reason", check.Reason, "used", check.Used, "limit", check.Limit)
		return nil, nil
	}

	number, err := s.sequences.NextNumber(ctx, params.TenantID, resolutionNumber, prefix)
	if err != nil {
		return nil, fmt.Errorf("falha ao alocar número do documento: %w", err)
	}

	entry, err := NewQueueEntry(params.TenantID, params.Kind, params.SourceType, params.SourceID, params.OrderNumber, resolutionNumber, prefix, number)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("falha ao persistir documento na fila: %w", err)
	}

	s.metrics.RecordEnqueued()
	s.logger.Info("documento enfileirado",
		"tenant_id", params.TenantID, "document_id", entry.ID,
		"kind", string(params.Kind), "number", entry.FullNumber())

	return &EnqueueResult{
		ID:             entry.ID,
		DocumentNumber: number,
		FullNumber:     entry.FullNumber(),
	}, nil
}

// GetStatus retorna a entrada da fila e a lista de artefatos armazenados
func (s *DocumentService) GetStatus(ctx context.Context, id string) (*QueueEntry, []DocumentFile, error) {
	entry, err := s.queue.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	files, err := s.queue.FindFiles(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("falha ao listar arquivos do documento: %w", err)
	}

	return entry, files, nil
}

// List lista os documentos de um tenant, mais recentes primeiro
func (s *DocumentService) List(ctx context.Context, tenantID string, limit, offset int) ([]*QueueEntry, error) {
	return s.queue.ListByTenant(ctx, tenantID, limit, offset)
}

// DownloadFile retorna o conteúdo de um artefato do documento
func (s *DocumentService) DownloadFile(ctx context.Context, id string, kind FileKind) ([]byte, error) {
	if _, err := s.queue.FindByID(ctx, id); err != nil {
		return nil, err
	}

	file, err := s.queue.FindFile(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	return file.Content, nil
}

// Retry reinicia manualmente um documento FAILED/REJECTED para PENDING,
// zerando o contador de tentativas e mantendo o número já alocado.
func (s *DocumentService) Retry(ctx context.Context, id string) error {
	entry, err := s.queue.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := entry.ResetForRetry(); err != nil {
		return err
	}

	if err := s.queue.Update(ctx, entry); err != nil {
		return fmt.Errorf("falha ao atualizar documento: %w", err)
	}

	s.logger.Info("documento reenfileirado manualmente",
		"tenant_id", entry.TenantID, "document_id", entry.ID, "number", entry.FullNumber())
	return nil
}
