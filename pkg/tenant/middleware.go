package tenant

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantValidator define a interface para validação de tenant
type TenantValidator interface {
	ValidateTenant(tenantID string) (bool, error)
}

type middlewareError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// TenantMiddleware cria um middleware para validação do tenant
func TenantMiddleware(validator TenantValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Não aplicar a validação para rotas públicas
		if isExcludedPath(c.FullPath()) {
			c.Next()
			return
		}

		// Obter tenant ID do cabeçalho
		tenantID := c.GetHeader("tenant-id")
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, middlewareError{
				Code:    http.StatusBadRequest,
				Message: "Tenant ID não fornecido",
				Details: "O cabeçalho 'tenant-id' é obrigatório",
			})
			return
		}

		// Validar o tenant ID
		valid, err := validator.ValidateTenant(tenantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, middlewareError{
				Code:    http.StatusInternalServerError,
				Message: "Erro ao validar tenant",
				Details: err.Error(),
			})
			return
		}

		if !valid {
			c.AbortWithStatusJSON(http.StatusForbidden, middlewareError{
				Code:    http.StatusForbidden,
				Message: "Tenant inválido",
				Details: "O tenant informado não existe ou está inativo",
			})
			return
		}

		// Armazenar o tenant ID no contexto
		c.Set("tenant_id", tenantID)
		c.Request = c.Request.WithContext(SetTenantIDContext(c.Request.Context(), tenantID))

		c.Next()
	}
}

// isExcludedPath verifica se o caminho está excluído da validação de tenant
func isExcludedPath(path string) bool {
	// Lista de caminhos excluídos da validação de tenant
	excludedPaths := []string{
		"/api/v1/auth/login",
		"/api/v1/tenants",
		"/api/v1/tenants/",
		"/api/v1/health",
	}

	for _, excludedPath := range excludedPaths {
		if path == excludedPath {
			return true
		}
	}

	return false
}
