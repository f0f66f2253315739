package order

import "time"

// Status representa o estado do pedido
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod define a forma de pagamento registrada no PDV
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

// Order representa um pedido de venda concluído no PDV. Este módulo
// apenas lê pedidos; a escrita pertence ao fluxo de vendas.
type Order struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	CustomerID  *string    `json:"customer_id,omitempty"`
	SupplierID  *string    `json:"supplier_id,omitempty"` // Preenchido em compras (documento de suporte)
	Status      Status     `json:"status"`
	Subtotal    float64    `json:"subtotal"`
	Tax         float64    `json:"tax"`
	Total       float64    `json:"total"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Item representa uma linha do pedido
type Item struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	ProductCode string  `json:"product_code,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Payment representa um pagamento registrado para o pedido
type Payment struct {
	ID      string        `json:"id"`
	OrderID string        `json:"order_id"`
	Method  PaymentMethod `json:"method"`
	Amount  float64       `json:"amount"`
}

// Refund representa uma devolução (total ou parcial) de um pedido.
// É a origem das notas de crédito.
type Refund struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Amount         float64   `json:"amount"`
	CorrectionCode string    `json:"correction_code"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
