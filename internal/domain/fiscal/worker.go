package fiscal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
	"github.com/hugohenrick/pos-facturacion/pkg/tenant"
)

// Tamanhos de lote do worker por varredura
const (
	PendingBatchSize = 10
	RetryBatchSize   = 5
)

// DefaultProviderTimeout limita cada chamada ao provedor. Timeout é
// tratado como falha transitória (retentável).
const DefaultProviderTimeout = 30 * time.Second

// UsageRecorder registra o consumo de cota após uma aceitação
type UsageRecorder interface {
	Increment(ctx context.Context, tenantID string, kind billing.UsageKind) error
}

// BatchResult resume uma varredura do worker
type BatchResult struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// Worker drena a fila de documentos, movendo entradas PENDING/RETRY (e
// entradas SENT abandonadas por um worker que caiu) até um estado terminal. É invocado por um agendador externo e executa o lote de
// forma síncrona; a segurança entre invocações concorrentes vem do claim
// com lock de linha no repositório.
type Worker struct {
	queue    QueueRepository
	builder  *PayloadBuilder
	resolver ProviderResolver
	meter    UsageRecorder
	metrics  *TransitionMetrics
	logger   logger.Logger
	timeout  time.Duration
}

// NewWorker cria uma nova instância de Worker
func NewWorker(queue QueueRepository, builder *PayloadBuilder, resolver ProviderResolver, meter UsageRecorder, metrics *TransitionMetrics, logger logger.Logger) *Worker {
	return &Worker{
		queue:    queue,
		builder:  builder,
		resolver: resolver,
		meter:    meter,
		metrics:  metrics,
		logger:   logger,
		timeout:  DefaultProviderTimeout,
	}
}

// ProcessPending processa um lote de documentos PENDING, um lote menor de
// documentos RETRY e recupera documentos SENT cujo claim expirou
func (w *Worker) ProcessPending(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{}

	pending, err := w.queue.ClaimBatch(ctx, StatusPending, PendingBatchSize)
	if err != nil {
		return nil, fmt.Errorf("falha ao reivindicar documentos PENDING: %w", err)
	}

	retries, err := w.queue.ClaimBatch(ctx, StatusRetry, RetryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("falha ao reivindicar documentos RETRY: %w", err)
	}

	// Uma queda do worker entre a marcação SENT e a gravação da resposta
	// deixaria o documento fora das duas filas acima para sempre. O claim
	// só devolve linhas SENT com claimed_at expirado, então envios ainda
	// em andamento em outro worker não são disputados.
	stalled, err := w.queue.ClaimBatch(ctx, StatusSent, RetryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("falha ao reivindicar documentos SENT abandonados: %w", err)
	}

	batch := append(append(pending, retries...), stalled...)
	for _, entry := range batch {
		result.Processed++
		ok, err := w.ProcessDocument(ctx, entry.ID)
		if err != nil {
			w.logger.Error("falha ao processar documento", "document_id", entry.ID, "error", err.Error())
			result.Failed++
			continue
		}
		if ok {
			result.Accepted++
			continue
		}
		current, findErr := w.queue.FindByID(ctx, entry.ID)
		if findErr == nil && current.Status == StatusRetry {
			result.Retried++
		} else {
			result.Failed++
		}
	}

	if result.Processed > 0 {
		w.logger.Info("varredura da fila concluída",
			"processed", result.Processed, "accepted", result.Accepted,
			"retried", result.Retried, "failed", result.Failed)
	}
	return result, nil
}

// ProcessDocument executa uma tentativa de emissão de um documento.
// Retorna true quando o documento foi aceito pelo provedor. Documentos já
// em estado terminal não são reprocessados (ErrDocumentNotProcessable);
// o reenvio manual passa por DocumentService.Retry.
func (w *Worker) ProcessDocument(ctx context.Context, id string) (bool, error) {
	entry, err := w.queue.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if entry.Status.IsTerminal() {
		return false, ErrDocumentNotProcessable
	}

	// O worker atende vários tenants na mesma varredura: propagar o tenant
	// da entrada para que as leituras de pedido/cliente usem o schema certo
	ctx = tenant.SetTenantIDContext(ctx, entry.TenantID)

	provider, err := w.resolver.ProviderForTenant(ctx, entry.TenantID)
	if err != nil {
		// Problema de configuração, não transitório: falha direto
		return false, w.fail(ctx, entry, fmt.Sprintf("provedor indisponível para o tenant: %v", err))
	}

	payload, envelope, err := w.builder.Build(ctx, entry)
	if err != nil {
		return false, w.fail(ctx, entry, fmt.Sprintf("não foi possível montar o payload: %v", err))
	}

	// Persistir o payload e marcar SENT antes da chamada de rede: uma
	// queda no meio do envio fica observável e é retentada
	entry.MarkSent(envelope)
	if err := w.queue.Update(ctx, entry); err != nil {
		return false, fmt.Errorf("falha ao marcar documento como SENT: %w", err)
	}
	w.metrics.RecordTransition(StatusSent)

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	resp, callErr := w.dispatch(callCtx, provider, entry, payload)
	cancel()

	if callErr != nil {
		entry.MarkFailure(callErr.Error(), nil, false)
		if err := w.queue.Update(ctx, entry); err != nil {
			return false, fmt.Errorf("falha ao registrar falha de envio: %w", err)
		}
		w.metrics.RecordTransition(entry.Status)
		w.logger.Warn("falha transitória de envio",
			"tenant_id", entry.TenantID, "document_id", entry.ID,
			"status", string(entry.Status), "retry_count", entry.RetryCount, "error", callErr.Error())
		return false, nil
	}

	responseJSON, _ := json.Marshal(resp)

	if resp.Success && resp.Data != nil {
		entry.MarkAccepted(resp.Data.TrackID, resp.Data.CUFE, resp.Data.QRCode, responseJSON)
		if err := w.queue.Update(ctx, entry); err != nil {
			return false, fmt.Errorf("falha ao marcar documento como ACCEPTED: %w", err)
		}
		w.metrics.RecordTransition(StatusAccepted)
		w.logger.Info("documento aceito pelo provedor",
			"tenant_id", entry.TenantID, "document_id", entry.ID,
			"number", entry.FullNumber(), "cufe", resp.Data.CUFE)

		// A medição nunca desfaz uma aceitação: erros são apenas logados
		if err := w.meter.Increment(ctx, entry.TenantID, usageKindFor(entry.Kind)); err != nil {
			w.logger.Error("falha ao medir uso do documento aceito",
				"tenant_id", entry.TenantID, "document_id", entry.ID, "error", err.Error())
		}

		w.fetchPDF(ctx, provider, entry)
		return true, nil
	}

	// Rejeição explícita do provedor
	entry.MarkFailure(resp.ErrorMessage(), responseJSON, true)
	if err := w.queue.Update(ctx, entry); err != nil {
		return false, fmt.Errorf("falha ao registrar rejeição: %w", err)
	}
	w.metrics.RecordTransition(entry.Status)
	w.logger.Warn("documento rejeitado pelo provedor",
		"tenant_id", entry.TenantID, "document_id", entry.ID,
		"status", string(entry.Status), "retry_count", entry.RetryCount, "error", resp.ErrorMessage())
	return false, nil
}

// dispatch envia o payload pela operação adequada ao tipo de documento
func (w *Worker) dispatch(ctx context.Context, provider Provider, entry *QueueEntry, payload interface{}) (*ProviderResponse, error) {
	switch entry.Kind {
	case KindPOS, KindInvoice, KindSupportDoc:
		p, ok := payload.(*InvoicePayload)
		if !ok {
			return nil, fmt.Errorf("payload inesperado para %s", entry.Kind)
		}
		return provider.Submit(ctx, p)
	case KindPOSCreditNote, KindSupportAdjustment:
		p, ok := payload.(*CreditNotePayload)
		if !ok {
			return nil, fmt.Errorf("payload inesperado para %s", entry.Kind)
		}
		return provider.SubmitCreditNote(ctx, p)
	case KindPOSDebitNote:
		p, ok := payload.(*DebitNotePayload)
		if !ok {
			return nil, fmt.Errorf("payload inesperado para %s", entry.Kind)
		}
		return provider.SubmitDebitNote(ctx, p)
	default:
		return nil, fmt.Errorf("tipo de documento não suportado: %s", entry.Kind)
	}
}

// fetchPDF baixa e armazena a representação gráfica do documento aceito.
// Melhor esforço: uma falha aqui não reverte a aceitação.
func (w *Worker) fetchPDF(ctx context.Context, provider Provider, entry *QueueEntry) {
	if entry.TrackID == "" {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	content, err := provider.DownloadPDF(callCtx, entry.TrackID)
	if err != nil {
		w.logger.Warn("falha ao baixar PDF do documento aceito",
			"tenant_id", entry.TenantID, "document_id", entry.ID, "error", err.Error())
		return
	}

	file := NewDocumentFile(entry.ID, FilePDF, content)
	if err := w.queue.SaveFile(ctx, file); err != nil {
		w.logger.Warn("falha ao armazenar PDF do documento aceito",
			"tenant_id", entry.TenantID, "document_id", entry.ID, "error", err.Error())
	}
}

// fail coloca o documento em FAILED (condição não retentável) e registra a
// transição
func (w *Worker) fail(ctx context.Context, entry *QueueEntry, msg string) error {
	entry.MarkFailed(msg)
	if err := w.queue.Update(ctx, entry); err != nil {
		return fmt.Errorf("falha ao marcar documento como FAILED: %w", err)
	}
	w.metrics.RecordTransition(StatusFailed)
	w.logger.Error("documento movido para FAILED",
		"tenant_id", entry.TenantID, "document_id", entry.ID, "error", msg)
	return nil
}

// usageKindFor mapeia o tipo de documento para o contador de uso
// correspondente. Mapeamento enumerado explícito: um novo tipo de
// documento sem contador quebra aqui, não em produção silenciosamente.
func usageKindFor(kind DocumentKind) billing.UsageKind {
	switch kind {
	case KindPOS:
		return billing.UsagePOS
	case KindInvoice:
		return billing.UsageInvoice
	case KindPOSCreditNote, KindPOSDebitNote:
		return billing.UsageNotes
	case KindSupportDoc, KindSupportAdjustment:
		return billing.UsageSupportDocs
	default:
		return billing.UsagePOS
	}
}
