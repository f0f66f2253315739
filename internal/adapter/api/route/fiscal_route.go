package route

import (
	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/controller"
	"github.com/hugohenrick/pos-facturacion/pkg/auth"
)

// RegisterFiscalRoutes registra as rotas do módulo de faturação eletrônica.
// O grupo recebido já deve carregar o middleware de tenant.
func RegisterFiscalRoutes(r *gin.RouterGroup, fiscalController *controller.FiscalController) {
	fiscal := r.Group("/fiscal")
	fiscal.Use(auth.JWTAuthMiddleware())
	{
		fiscal.POST("/documents", fiscalController.Enqueue)
		fiscal.GET("/documents", fiscalController.List)
		fiscal.GET("/documents/:id", fiscalController.Get)
		fiscal.GET("/documents/:id/files/:kind", fiscalController.DownloadFile)
		fiscal.POST("/documents/:id/retry", fiscalController.Retry)
		fiscal.POST("/documents/:id/process", fiscalController.Process)
		fiscal.POST("/process", fiscalController.ProcessBatch)
		fiscal.GET("/quota", fiscalController.GetQuota)
		fiscal.GET("/usage", fiscalController.GetUsage)
		fiscal.GET("/metrics", fiscalController.GetMetrics)
		fiscal.GET("/configuration", fiscalController.GetConfiguration)
		fiscal.PUT("/configuration", fiscalController.SaveConfiguration)
		fiscal.POST("/certificate", fiscalController.UploadCertificate)
	}
}
