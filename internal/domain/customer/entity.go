package customer

import "time"

// PersonType define o tipo de pessoa (natural ou jurídica)
type PersonType string

const (
	PersonTypeNatural   PersonType = "natural"
	PersonTypeJuridical PersonType = "juridical"
)

// DocumentType define o tipo de documento de identificação (códigos DIAN)
type DocumentType string

const (
	DocTypeCC  DocumentType = "13" // Cédula de ciudadanía
	DocTypeNIT DocumentType = "31" // NIT
	DocTypeCE  DocumentType = "22" // Cédula de extranjería
	DocTypeTI  DocumentType = "12" // Tarjeta de identidad
	DocTypePP  DocumentType = "41" // Pasaporte
)

// Customer representa um cliente do tenant. Este módulo apenas lê
// clientes; o cadastro pertence ao CRM do PDV.
type Customer struct {
	ID           string       `json:"id"`
	PersonType   PersonType   `json:"person_type"`
	Name         string       `json:"name"`
	DocumentType DocumentType `json:"document_type"`
	Document     string       `json:"document"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsJuridical indica se o cliente é pessoa jurídica (empresa)
func (c *Customer) IsJuridical() bool {
	return c.PersonType == PersonTypeJuridical || c.DocumentType == DocTypeNIT
}
