package tenant

// Address representa o endereço fiscal colombiano do tenant, no formato do
// cadastro DIAN: direção (calle/carrera), município e departamento.
type Address struct {
	Street       string `json:"street"` // Direção, ex.: "Carrera 15 # 93-07"
	Complement   string `json:"complement,omitempty"`
	Municipality string `json:"municipality"`
	Department   string `json:"department"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// NewAddress cria uma nova instância de Address
func NewAddress(street, complement, municipality, department, postalCode, country string) Address {
	return Address{
		Street:       street,
		Complement:   complement,
		Municipality: municipality,
		Department:   department,
		PostalCode:   postalCode,
		Country:      country,
	}
}

// IsEmpty verifica se o endereço está vazio
func (a *Address) IsEmpty() bool {
	return a.Street == "" && a.Municipality == "" && a.Department == "" && a.PostalCode == ""
}

// Format formata o endereço em uma linha
func (a *Address) Format() string {
	addr := a.Street
	if a.Complement != "" {
		addr += " - " + a.Complement
	}
	addr += ", " + a.Municipality + ", " + a.Department
	if a.PostalCode != "" {
		addr += ", " + a.PostalCode
	}
	if a.Country != "" {
		addr += ", " + a.Country
	}
	return addr
}
