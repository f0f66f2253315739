package customer

import (
	"context"
	"errors"
)

// ErrCustomerNotFound ocorre quando um cliente não é encontrado
var ErrCustomerNotFound = errors.New("cliente não encontrado")

// Repository define o acesso de leitura a clientes
type Repository interface {
	FindByID(ctx context.Context, id string) (*Customer, error)
}
