package fiscal

import "context"

// QueueRepository define as operações de persistência da fila de documentos
type QueueRepository interface {
	// Create insere uma nova entrada PENDING na fila
	Create(ctx context.Context, entry *QueueEntry) error

	// FindByID busca uma entrada pelo ID
	FindByID(ctx context.Context, id string) (*QueueEntry, error)

	// FindAcceptedBySource busca o documento ACCEPTED emitido para um
	// registro de origem. Usado para referenciar a fatura original ao
	// montar notas de crédito/débito.
	FindAcceptedBySource(ctx context.Context, tenantID string, sourceType SourceType, sourceID string) (*QueueEntry, error)

	// ListByTenant lista as entradas de um tenant, mais recentes primeiro
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*QueueEntry, error)

	// ClaimBatch reivindica até limit entradas no status informado para
	// processamento, pulando linhas já bloqueadas por outro worker
	// (FOR UPDATE SKIP LOCKED). Entradas com retry_count acima de
	// max_retries não são retornadas.
	ClaimBatch(ctx context.Context, status Status, limit int) ([]*QueueEntry, error)

	// Update persiste as mutações de estado de uma entrada
	Update(ctx context.Context, entry *QueueEntry) error

	// SaveFile armazena um artefato (PDF/XML) do documento
	SaveFile(ctx context.Context, file *DocumentFile) error

	// FindFiles lista os artefatos de um documento (sem o conteúdo binário)
	FindFiles(ctx context.Context, documentID string) ([]DocumentFile, error)

	// FindFile busca um artefato específico com o conteúdo binário
	FindFile(ctx context.Context, documentID string, kind FileKind) (*DocumentFile, error)
}

// SequenceRepository aloca números legais de documento.
//
// A implementação deve ser linearizável entre chamadores concorrentes:
// a leitura, o incremento e a escrita do contador acontecem sob um lock
// pessimista de linha dentro de uma única transação curta.
type SequenceRepository interface {
	// NextNumber retorna o próximo número para a chave
	// (tenant, resolução, prefixo). O contador é criado de forma preguiçosa
	// na primeira alocação: a partir do número inicial configurado do
	// tenant ou, na falta dele, do último número conhecido pelo provedor.
	// Retorna ErrRangeExceeded quando o intervalo autorizado se esgota.
	NextNumber(ctx context.Context, tenantID, resolutionNumber, prefix string) (int64, error)
}

// ConfigurationRepository define a persistência da configuração de
// faturação por tenant
type ConfigurationRepository interface {
	Create(ctx context.Context, config *Configuration) error
	Update(ctx context.Context, config *Configuration) error

	// FindByTenant busca a configuração de um tenant. Retorna
	// ErrConfigurationNotFound quando o tenant não possui configuração.
	FindByTenant(ctx context.Context, tenantID string) (*Configuration, error)
}
