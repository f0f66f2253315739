package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/dto"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/repository"
	"github.com/hugohenrick/pos-facturacion/internal/domain/tenant"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// TenantController gerencia as requisições relacionadas aos tenants
type TenantController struct {
	tenantRepository tenant.Repository
	db               *database.PostgresDB
	logger           logger.Logger
}

// NewTenantController cria uma nova instância de TenantController
func NewTenantController(tenantRepository tenant.Repository, db *database.PostgresDB, logger logger.Logger) *TenantController {
	return &TenantController{
		tenantRepository: tenantRepository,
		db:               db,
		logger:           logger,
	}
}

// Create cria um novo tenant
// @Summary Criar tenant
// @Description Cria um novo tenant com schema próprio no banco de dados
// @Tags tenants
// @Accept json
// @Produce json
// @Param tenant body dto.TenantRequest true "Dados do tenant"
// @Success 201 {object} dto.TenantResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tenants [post]
func (c *TenantController) Create(ctx *gin.Context) {
	var request dto.TenantRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "requisição inválida", err.Error()))
		return
	}

	t, err := tenant.NewTenant(request.Name, request.Document, request.Email, request.Phone, request.PlanType)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados do tenant inválidos", err.Error()))
		return
	}

	if err := c.tenantRepository.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTenantDuplicateDocument) {
			ctx.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "documento já cadastrado", err.Error()))
			return
		}
		c.logger.Error("erro ao criar tenant", "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao criar tenant", err.Error()))
		return
	}

	if err := c.db.CreateTenantSchema(ctx, t.Schema); err != nil {
		c.logger.Error("erro ao criar schema do tenant", "tenant_id", t.ID, "schema", t.Schema, "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao criar schema do tenant", err.Error()))
		return
	}

	if err := database.RunTenantMigrations(c.db.Config(), t.Schema); err != nil {
		c.logger.Error("erro ao aplicar migrações do tenant", "tenant_id", t.ID, "schema", t.Schema, "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao aplicar migrações do tenant", err.Error()))
		return
	}

	c.logger.Info("tenant criado", "tenant_id", t.ID, "schema", t.Schema)
	ctx.JSON(http.StatusCreated, dto.ToTenantResponse(t))
}

// Get busca um tenant pelo ID
// @Summary Buscar tenant
// @Description Retorna os dados de um tenant
// @Tags tenants
// @Produce json
// @Param id path string true "ID do tenant"
// @Success 200 {object} dto.TenantResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tenants/{id} [get]
func (c *TenantController) Get(ctx *gin.Context) {
	t, err := c.tenantRepository.FindByID(ctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "tenant não encontrado", ""))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao buscar tenant", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.ToTenantResponse(t))
}

// List lista os tenants com paginação
// @Summary Listar tenants
// @Description Lista os tenants cadastrados
// @Tags tenants
// @Produce json
// @Param page query int false "Página"
// @Param page_size query int false "Tamanho da página"
// @Success 200 {object} dto.TenantListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tenants [get]
func (c *TenantController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	pagination := dto.GetPagination(page, pageSize)

	tenants, err := c.tenantRepository.List(ctx, pagination.PageSize, pagination.Offset())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao listar tenants", err.Error()))
		return
	}

	total, err := c.tenantRepository.Count(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao contar tenants", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTenantListResponse(tenants, total, pagination.Page, pagination.PageSize))
}

// Update atualiza os dados de um tenant
// @Summary Atualizar tenant
// @Description Atualiza os dados cadastrais de um tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param id path string true "ID do tenant"
// @Param tenant body dto.TenantRequest true "Dados do tenant"
// @Success 200 {object} dto.TenantResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tenants/{id} [put]
func (c *TenantController) Update(ctx *gin.Context) {
	var request dto.TenantRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "requisição inválida", err.Error()))
		return
	}

	t, err := c.tenantRepository.FindByID(ctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "tenant não encontrado", ""))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao buscar tenant", err.Error()))
		return
	}

	if err := t.Update(request.Name, request.Email, request.Phone); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados do tenant inválidos", err.Error()))
		return
	}
	if request.PlanType != "" && request.PlanType != t.PlanType {
		t.ChangePlan(request.PlanType)
	}

	if err := c.tenantRepository.Update(ctx, t); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao atualizar tenant", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.ToTenantResponse(t))
}

// UpdateStatus altera o status de um tenant
// @Summary Alterar status do tenant
// @Description Ativa, desativa ou bloqueia um tenant
// @Tags tenants
// @Produce json
// @Param id path string true "ID do tenant"
// @Param status query string true "Novo status (active, inactive, blocked)"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tenants/{id}/status [patch]
func (c *TenantController) UpdateStatus(ctx *gin.Context) {
	status := tenant.Status(ctx.Query("status"))
	switch status {
	case tenant.StatusActive, tenant.StatusInactive, tenant.StatusBlocked:
	default:
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "status inválido", "use active, inactive ou blocked"))
		return
	}

	if err := c.tenantRepository.UpdateStatus(ctx, ctx.Param("id"), status); err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "tenant não encontrado", ""))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao alterar status", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("status atualizado", nil))
}
