package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/pos-facturacion/internal/domain/order"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

// OrderRepository implementa o acesso de leitura a pedidos no schema do
// tenant. As consultas usam GetTenantConnection: o search_path já chega
// apontando para o schema correto.
type OrderRepository struct {
	db *database.PostgresDB
}

// NewOrderRepository cria uma nova instância de OrderRepository
func NewOrderRepository(db *database.PostgresDB) order.Repository {
	return &OrderRepository{
		db: db,
	}
}

// FindByID implementa order.Repository.FindByID
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	conn, err := r.db.GetTenantConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão do tenant: %w", err)
	}
	defer conn.Release()

	var o order.Order
	var status string
	err = conn.QueryRow(ctx, `SELECT id, number, customer_id, supplier_id, status, subtotal, tax, total, completed_at, created_at
		FROM orders WHERE id = $1`,
		id).Scan(&o.ID, &o.Number, &o.CustomerID, &o.SupplierID, &status, &o.Subtotal, &o.Tax, &o.Total, &o.CompletedAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("falha ao buscar pedido: %w", err)
	}
	o.Status = order.Status(status)
	return &o, nil
}

// FindItems implementa order.Repository.FindItems
func (r *OrderRepository) FindItems(ctx context.Context, orderID string) ([]order.Item, error) {
	conn, err := r.db.GetTenantConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão do tenant: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT id, order_id, product_id, COALESCE(product_code, ''), description, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY created_at`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar itens do pedido: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductCode, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("falha ao ler item do pedido: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindPayments implementa order.Repository.FindPayments
func (r *OrderRepository) FindPayments(ctx context.Context, orderID string) ([]order.Payment, error) {
	conn, err := r.db.GetTenantConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão do tenant: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT id, order_id, method, amount
		FROM payments WHERE order_id = $1 ORDER BY created_at`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar pagamentos do pedido: %w", err)
	}
	defer rows.Close()

	var payments []order.Payment
	for rows.Next() {
		var p order.Payment
		var method string
		if err := rows.Scan(&p.ID, &p.OrderID, &method, &p.Amount); err != nil {
			return nil, fmt.Errorf("falha ao ler pagamento: %w", err)
		}
		p.Method = order.PaymentMethod(method)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// FindRefund implementa order.Repository.FindRefund
func (r *OrderRepository) FindRefund(ctx context.Context, refundID string) (*order.Refund, error) {
	conn, err := r.db.GetTenantConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão do tenant: %w", err)
	}
	defer conn.Release()

	var ref order.Refund
	err = conn.QueryRow(ctx, `SELECT id, order_id, amount, COALESCE(correction_code, '2'), COALESCE(reason, ''), created_at
		FROM refunds WHERE id = $1`,
		refundID).Scan(&ref.ID, &ref.OrderID, &ref.Amount, &ref.CorrectionCode, &ref.Reason, &ref.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrRefundNotFound
		}
		return nil, fmt.Errorf("falha ao buscar devolução: %w", err)
	}
	return &ref, nil
}
