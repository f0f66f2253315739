package tenant

import "errors"

// Erros de resolução do tenant de uma requisição
var (
	// ErrTenantNotSpecified ocorre quando a requisição não carrega o
	// cabeçalho tenant-id
	ErrTenantNotSpecified = errors.New("cabeçalho tenant-id não informado")

	// ErrTenantNotFound ocorre quando o tenant informado não existe
	ErrTenantNotFound = errors.New("tenant não encontrado")

	// ErrTenantNotActive ocorre quando o tenant existe mas está inativo
	// ou bloqueado
	ErrTenantNotActive = errors.New("tenant não está ativo")
)
