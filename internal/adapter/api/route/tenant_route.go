package route

import (
	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/controller"
)

// RegisterTenantRoutes registra as rotas de administração de tenants.
// Essas rotas não exigem o cabeçalho tenant-id: são o ponto de entrada do
// provisionamento.
func RegisterTenantRoutes(r *gin.RouterGroup, tenantController *controller.TenantController) {
	tenants := r.Group("/tenants")
	{
		tenants.POST("", tenantController.Create)
		tenants.GET("", tenantController.List)
		tenants.GET("/:id", tenantController.Get)
		tenants.PUT("/:id", tenantController.Update)
		tenants.PATCH("/:id/status", tenantController.UpdateStatus)
	}
}
