package order

import (
	"context"
	"errors"
)

var (
	ErrOrderNotFound  = errors.New("pedido não encontrado")
	ErrRefundNotFound = errors.New("devolução não encontrada")
)

// Repository define o acesso de leitura a pedidos, itens e pagamentos.
// O módulo fiscal nunca altera esses registros.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Order, error)
	FindItems(ctx context.Context, orderID string) ([]Item, error)
	FindPayments(ctx context.Context, orderID string) ([]Payment, error)
	FindRefund(ctx context.Context, refundID string) (*Refund, error)
}
