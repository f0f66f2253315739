package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type authError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// JWTAuthMiddleware valida o token Bearer e injeta as claims no contexto
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		service, err := NewJWTService()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, authError{
				Code:    http.StatusInternalServerError,
				Message: "Erro de configuração de autenticação",
				Details: err.Error(),
			})
			return
		}

		// Obter o token do cabeçalho Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authError{
				Code:    http.StatusUnauthorized,
				Message: "Token não fornecido",
				Details: "O cabeçalho 'Authorization' é obrigatório",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authError{
				Code:    http.StatusUnauthorized,
				Message: "Token mal formatado",
				Details: "Use o formato 'Bearer {token}'",
			})
			return
		}

		claims, err := service.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authError{
				Code:    http.StatusUnauthorized,
				Message: "Token inválido",
				Details: err.Error(),
			})
			return
		}

		// Disponibilizar as claims para os handlers
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		if claims.TenantID != "" {
			c.Set("tenant_id", claims.TenantID)
		}

		c.Next()
	}
}
