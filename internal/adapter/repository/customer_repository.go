package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/customer"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// CustomerRepository implementa o acesso de leitura a clientes no schema
// do tenant
type CustomerRepository struct {
	db *database.PostgresDB
}

// NewCustomerRepository cria uma nova instância de CustomerRepository
func NewCustomerRepository(db *database.PostgresDB) customer.Repository {
	return &CustomerRepository{
		db: db,
	}
}

// FindByID implementa customer.Repository.FindByID
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	conn, err := r.db.GetTenantConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão do tenant: %w", err)
	}
	defer conn.Release()

	var c customer.Customer
	var personType, documentType string
	err = conn.QueryRow(ctx, `SELECT id, person_type, name, document_type, document,
		COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at
		FROM customers WHERE id = $1`,
		id).Scan(&c.ID, &personType, &c.Name, &documentType, &c.Document, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("falha ao buscar cliente: %w", err)
	}
	c.PersonType = customer.PersonType(personType)
	c.DocumentType = customer.DocumentType(documentType)
	return &c, nil
}
