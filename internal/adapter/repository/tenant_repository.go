package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/tenant"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// Erros específicos do repositório
var (
	ErrTenantNotFound          = errors.New("tenant não encontrado")
	ErrTenantDuplicateDocument = errors.New("tenant com mesmo documento já existe")
)

// TenantRepository implementa a interface tenant.Repository
type TenantRepository struct {
	db *database.PostgresDB
}

// NewTenantRepository cria uma nova instância de TenantRepository
func NewTenantRepository(db *database.PostgresDB) tenant.Repository {
	return &TenantRepository{
		db: db,
	}
}

const tenantColumns = `id, name, document, email, phone,
	address_street, address_complement, address_municipality, address_department, address_postal_code, address_country,
	status, schema, plan_type, created_at, updated_at`

// Create implementa tenant.Repository.Create
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	// Verificar duplicidade de documento
	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM public.tenants WHERE document = $1)", t.Document).Scan(&exists)
	if err != nil {
		return fmt.Errorf("falha ao verificar documento: %w", err)
	}
	if exists {
		return ErrTenantDuplicateDocument
	}

	query := fmt.Sprintf(`INSERT INTO public.tenants (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`, tenantColumns)

	_, err = conn.Exec(ctx, query,
		t.ID, t.Name, t.Document, t.Email, t.Phone,
		t.Address.Street, t.Address.Complement, t.Address.Municipality, t.Address.Department, t.Address.PostalCode, t.Address.Country,
		string(t.Status), t.Schema, t.PlanType, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao inserir tenant: %w", err)
	}

	return nil
}

// FindByID implementa tenant.Repository.FindByID
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT %s FROM public.tenants WHERE id = $1", tenantColumns)
	return scanTenant(conn.QueryRow(ctx, query, id))
}

// FindByDocument implementa tenant.Repository.FindByDocument
func (r *TenantRepository) FindByDocument(ctx context.Context, document string) (*tenant.Tenant, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT %s FROM public.tenants WHERE document = $1", tenantColumns)
	return scanTenant(conn.QueryRow(ctx, query, document))
}

// List implementa tenant.Repository.List
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT %s FROM public.tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2", tenantColumns)
	rows, err := conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Update implementa tenant.Repository.Update
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE public.tenants SET
		name = $2, email = $3, phone = $4,
		address_street = $5, address_complement = $6, address_municipality = $7,
		address_department = $8, address_postal_code = $9, address_country = $10,
		status = $11, plan_type = $12, updated_at = $13
		WHERE id = $1`,
		t.ID, t.Name, t.Email, t.Phone,
		t.Address.Street, t.Address.Complement, t.Address.Municipality,
		t.Address.Department, t.Address.PostalCode, t.Address.Country,
		string(t.Status), t.PlanType, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao atualizar tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// UpdateStatus implementa tenant.Repository.UpdateStatus
func (r *TenantRepository) UpdateStatus(ctx context.Context, id string, status tenant.Status) error {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, "UPDATE public.tenants SET status = $2, updated_at = now() WHERE id = $1", id, string(status))
	if err != nil {
		return fmt.Errorf("falha ao atualizar status do tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Count implementa tenant.Repository.Count
func (r *TenantRepository) Count(ctx context.Context) (int, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return 0, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM public.tenants").Scan(&count); err != nil {
		return 0, fmt.Errorf("falha ao contar tenants: %w", err)
	}
	return count, nil
}

// Exists implementa tenant.Repository.Exists
func (r *TenantRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM public.tenants WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("falha ao verificar tenant: %w", err)
	}
	return exists, nil
}

// ExistsByDocument implementa tenant.Repository.ExistsByDocument
func (r *TenantRepository) ExistsByDocument(ctx context.Context, document string) (bool, error) {
	conn, err := r.db.GetConnection(ctx)
	if err != nil {
		return false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM public.tenants WHERE document = $1)", document).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("falha ao verificar documento: %w", err)
	}
	return exists, nil
}

// scanTenant converte uma linha do banco em tenant.Tenant
func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var status string
	err := row.Scan(
		&t.ID, &t.Name, &t.Document, &t.Email, &t.Phone,
		&t.Address.Street, &t.Address.Complement, &t.Address.Municipality,
		&t.Address.Department, &t.Address.PostalCode, &t.Address.Country,
		&status, &t.Schema, &t.PlanType, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("falha ao ler tenant: %w", err)
	}
	t.Status = tenant.Status(status)
	return &t, nil
}
