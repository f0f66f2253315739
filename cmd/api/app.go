package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hugohenrick/pos-facturacion/docs"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/controller"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/route"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/provider/facturante"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/repository"
	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
	"github.com/hugohenrick/pos-facturacion/pkg/tenant"
)

// App representa a aplicação e suas dependências
type App struct {
	router *gin.Engine
	db     *database.PostgresDB
	logger logger.Logger
}

// NewApp cria uma nova instância do aplicativo com todas as dependências
func NewApp() (*App, error) {
	log := logger.NewLogger()

	// Banco de dados
	config := database.NewPostgresConfigFromEnv()
	db, err := database.NewPostgresDB(config)
	if err != nil {
		return nil, err
	}

	// Repositórios
	tenantRepo := repository.NewTenantRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	queueRepo := repository.NewFiscalRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Provedor tecnológico e alocação de numeração
	resolver := facturante.NewResolver(configRepo, log)
	sequenceRepo := repository.NewSequenceRepository(db, configRepo, resolver)

	// Serviços de domínio
	quota := billing.NewQuotaService(subscriptionRepo, usageRepo, log)
	meter := billing.NewUsageMeter(subscriptionRepo, usageRepo, log)
	metrics := fiscal.NewTransitionMetrics()
	builder := fiscal.NewPayloadBuilder(orderRepo, customerRepo, configRepo, queueRepo, log)
	documentService := fiscal.NewDocumentService(queueRepo, sequenceRepo, configRepo, quota, metrics, log)
	worker := fiscal.NewWorker(queueRepo, builder, resolver, meter, metrics, log)

	// Controllers
	tenantController := controller.NewTenantController(tenantRepo, db, log)
	fiscalController := controller.NewFiscalController(documentService, worker, configRepo, quota, usageRepo, metrics, log)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "tenant-id"},
		AllowCredentials: false,
	}))

	api := router.Group("/api/v1")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Documentação
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Rotas de provisionamento (sem cabeçalho tenant-id)
	route.RegisterTenantRoutes(api, tenantController)

	// Rotas protegidas por tenant
	tenantValidator := repository.NewTenantValidator(tenantRepo)
	protected := api.Group("")
	protected.Use(tenant.TenantMiddleware(tenantValidator))
	route.RegisterFiscalRoutes(protected, fiscalController)

	return &App{
		router: router,
		db:     db,
		logger: log,
	}, nil
}

// Start inicia o servidor HTTP
func (a *App) Start() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	a.logger.Info("servidor iniciado", "port", port)
	return a.router.Run(":" + port)
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
