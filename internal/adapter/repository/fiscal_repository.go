package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// FiscalRepository implementa a interface fiscal.QueueRepository. A fila
// vive no schema public: o worker varre documentos de todos os tenants na
// mesma consulta.
type FiscalRepository struct {
	db *database.PostgresDB
}

// NewFiscalRepository cria uma nova instância de FiscalRepository
func NewFiscalRepository(db *database.PostgresDB) fiscal.QueueRepository {
	return &FiscalRepository{
		db: db,
	}
}

const documentColumns = `id, tenant_id, kind, source_type, source_id, order_number,
	resolution_number, prefix, document_number, status, retry_count, max_retries,
	request_json, response_json, error_message, track_id, cufe, qr_code,
	submitted_at, accepted_at, created_at, updated_at`

// Create implementa fiscal.QueueRepository.Create
func (r *FiscalRepository) Create(ctx context.Context, entry *fiscal.QueueEntry) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`INSERT INTO public.fiscal_documents (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`, documentColumns)

	_, err = conn.Exec(ctx, query,
		entry.ID, entry.TenantID, string(entry.Kind), string(entry.SourceType), entry.SourceID, nullString(entry.OrderNumber),
		entry.ResolutionNumber, entry.Prefix, entry.DocumentNumber, string(entry.Status), entry.RetryCount, entry.MaxRetries,
		entry.RequestJSON, entry.ResponseJSON, nullString(entry.ErrorMessage), nullString(entry.TrackID), nullString(entry.CUFE), nullString(entry.QRCode),
		entry.SubmittedAt, entry.AcceptedAt, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao inserir documento na fila: %w", err)
	}

	return nil
}

// FindByID implementa fiscal.QueueRepository.FindByID
func (r *FiscalRepository) FindByID(ctx context.Context, id string) (*fiscal.QueueEntry, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT %s FROM public.fiscal_documents WHERE id = $1", documentColumns)
	return scanDocument(conn.QueryRow(ctx, query, id))
}

// FindAcceptedBySource implementa fiscal.QueueRepository.FindAcceptedBySource
func (r *FiscalRepository) FindAcceptedBySource(ctx context.Context, tenantID string, sourceType fiscal.SourceType, sourceID string) (*fiscal.QueueEntry, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`SELECT %s FROM public.fiscal_documents
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3 AND status = $4
		ORDER BY accepted_at DESC LIMIT 1`, documentColumns)
	return scanDocument(conn.QueryRow(ctx, query, tenantID, string(sourceType), sourceID, string(fiscal.StatusAccepted)))
}

// ListByTenant implementa fiscal.QueueRepository.ListByTenant
func (r *FiscalRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*fiscal.QueueEntry, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`SELECT %s FROM public.fiscal_documents
		WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, documentColumns)
	rows, err := conn.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar documentos: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ClaimBatch implementa fiscal.QueueRepository.ClaimBatch. O claim usa
// FOR UPDATE SKIP LOCKED dentro de uma transação curta e marca claimed_at,
// para que dois workers concorrentes não disputem as mesmas linhas. A
// janela de expiração do claim também devolve à varredura documentos SENT
// abandonados por um worker que caiu no meio do envio.
func (r *FiscalRepository) ClaimBatch(ctx context.Context, status fiscal.Status, limit int) ([]*fiscal.QueueEntry, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM public.fiscal_documents
		WHERE status = $1 AND retry_count <= max_retries
		  AND (claimed_at IS NULL OR claimed_at < now() - interval '2 minutes')
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, documentColumns)

	rows, err := tx.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("falha ao reivindicar documentos: %w", err)
	}

	entries, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if _, err := tx.Exec(ctx, "UPDATE public.fiscal_documents SET claimed_at = now() WHERE id = ANY($1)", ids); err != nil {
		return nil, fmt.Errorf("falha ao marcar documentos reivindicados: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("falha ao fazer commit do claim: %w", err)
	}
	return entries, nil
}

// Update implementa fiscal.QueueRepository.Update
func (r *FiscalRepository) Update(ctx context.Context, entry *fiscal.QueueEntry) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE public.fiscal_documents SET
		status = $2, retry_count = $3, request_json = $4, response_json = $5,
		error_message = $6, track_id = $7, cufe = $8, qr_code = $9,
		submitted_at = $10, accepted_at = $11, updated_at = $12
		WHERE id = $1`,
		entry.ID, string(entry.Status), entry.RetryCount, entry.RequestJSON, entry.ResponseJSON,
		nullString(entry.ErrorMessage), nullString(entry.TrackID), nullString(entry.CUFE), nullString(entry.QRCode),
		entry.SubmittedAt, entry.AcceptedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao atualizar documento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fiscal.ErrDocumentNotFound
	}
	return nil
}

// SaveFile implementa fiscal.QueueRepository.SaveFile
func (r *FiscalRepository) SaveFile(ctx context.Context, file *fiscal.DocumentFile) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO public.fiscal_document_files (id, document_id, kind, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id, kind) DO UPDATE SET content = EXCLUDED.content, created_at = EXCLUDED.created_at`,
		file.ID, file.DocumentID, string(file.Kind), file.Content, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao armazenar arquivo do documento: %w", err)
	}
	return nil
}

// FindFiles implementa fiscal.QueueRepository.FindFiles
func (r *FiscalRepository) FindFiles(ctx context.Context, documentID string) ([]fiscal.DocumentFile, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		"SELECT id, document_id, kind, created_at FROM public.fiscal_document_files WHERE document_id = $1",
		documentID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar arquivos: %w", err)
	}
	defer rows.Close()

	var files []fiscal.DocumentFile
	for rows.Next() {
		var f fiscal.DocumentFile
		var kind string
		if err := rows.Scan(&f.ID, &f.DocumentID, &kind, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("falha ao ler arquivo: %w", err)
		}
		f.Kind = fiscal.FileKind(kind)
		files = append(files, f)
	}
	return files, rows.Err()
}

// FindFile implementa fiscal.QueueRepository.FindFile
func (r *FiscalRepository) FindFile(ctx context.Context, documentID string, kind fiscal.FileKind) (*fiscal.DocumentFile, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var f fiscal.DocumentFile
	var k string
	err = conn.QueryRow(ctx,
		"SELECT id, document_id, kind, content, created_at FROM public.fiscal_document_files WHERE document_id = $1 AND kind = $2",
		documentID, string(kind)).Scan(&f.ID, &f.DocumentID, &k, &f.Content, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrFileNotFound
		}
		return nil, fmt.Errorf("falha ao buscar arquivo: %w", err)
	}
	f.Kind = fiscal.FileKind(k)
	return &f, nil
}

// scanDocument converte uma linha do banco em fiscal.QueueEntry
func scanDocument(row pgx.Row) (*fiscal.QueueEntry, error) {
	var e fiscal.QueueEntry
	var kind, sourceType, status string
	var orderNumber, errorMessage, trackID, cufe, qrCode *string

	err := row.Scan(
		&e.ID, &e.TenantID, &kind, &sourceType, &e.SourceID, &orderNumber,
		&e.ResolutionNumber, &e.Prefix, &e.DocumentNumber, &status, &e.RetryCount, &e.MaxRetries,
		&e.RequestJSON, &e.ResponseJSON, &errorMessage, &trackID, &cufe, &qrCode,
		&e.SubmittedAt, &e.AcceptedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("falha ao ler documento: %w", err)
	}

	e.Kind = fiscal.DocumentKind(kind)
	e.SourceType = fiscal.SourceType(sourceType)
	e.Status = fiscal.Status(status)
	e.OrderNumber = derefString(orderNumber)
	e.ErrorMessage = derefString(errorMessage)
	e.TrackID = derefString(trackID)
	e.CUFE = derefString(cufe)
	e.QRCode = derefString(qrCode)
	return &e, nil
}

// collectDocuments lê todas as linhas de uma consulta de documentos
func collectDocuments(rows pgx.Rows) ([]*fiscal.QueueEntry, error) {
	defer rows.Close()

	var entries []*fiscal.QueueEntry
	for rows.Next() {
		e, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullString converte string vazia em NULL
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString converte NULL em string vazia
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
