package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/pos-facturacion/internal/adapter/api/dto"
	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
	"github.com/hugohenrick/pos-facturacion/pkg/pkcs12"
)

// FiscalController gerencia as requisições de faturação eletrônica
type FiscalController struct {
	service *fiscal.DocumentService
	worker  *fiscal.Worker
	configs fiscal.ConfigurationRepository
	quota   fiscal.QuotaChecker
	usage   billing.UsageRepository
	metrics *fiscal.TransitionMetrics
	logger  logger.Logger
}

// NewFiscalController cria uma nova instância de FiscalController
func NewFiscalController(
	service *fiscal.DocumentService,
	worker *fiscal.Worker,
	configs fiscal.ConfigurationRepository,
	quota fiscal.QuotaChecker,
	usage billing.UsageRepository,
	metrics *fiscal.TransitionMetrics,
	logger logger.Logger,
) *FiscalController {
	return &FiscalController{
		service: service,
		worker:  worker,
		configs: configs,
		quota:   quota,
		usage:   usage,
		metrics: metrics,
		logger:  logger,
	}
}

// Enqueue enfileira um documento eletrônico
// @Summary Enfileirar documento
// @Description Reserva um número legal e insere o documento na fila de emissão
// @Tags fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param document body dto.EnqueueDocumentRequest true "Dados do documento"
// @Success 201 {object} dto.EnqueueDocumentResponse
// @Success 200 {object} dto.SuccessResponse "Cota excedida: venda segue sem documento"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents [post]
func (c *FiscalController) Enqueue(ctx *gin.Context) {
	var req dto.EnqueueDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	tenantID := ctx.GetString("tenant_id")
	result, err := c.service.Enqueue(ctx, fiscal.EnqueueParams{
		TenantID:    tenantID,
		Kind:        fiscal.DocumentKind(req.Kind),
		SourceType:  fiscal.SourceType(req.SourceType),
		SourceID:    req.SourceID,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		c.respondError(ctx, "erro ao enfileirar documento", err)
		return
	}

	// Cota negada: nenhum documento criado, a venda não é bloqueada
	if result == nil {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse("cota mensal excedida, documento não enfileirado", nil))
		return
	}

	ctx.JSON(http.StatusCreated, dto.EnqueueDocumentResponse{
		ID:             result.ID,
		DocumentNumber: result.DocumentNumber,
		FullNumber:     result.FullNumber,
		Status:         string(fiscal.StatusPending),
	})
}

// List lista os documentos do tenant
// @Summary Listar documentos
// @Description Lista os documentos da fila do tenant, mais recentes primeiro
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param page query int false "Página"
// @Param page_size query int false "Tamanho da página"
// @Success 200 {object} dto.DocumentListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents [get]
func (c *FiscalController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	pagination := dto.GetPagination(page, pageSize)

	tenantID := ctx.GetString("tenant_id")
	entries, err := c.service.List(ctx, tenantID, pagination.PageSize, pagination.Offset())
	if err != nil {
		c.respondError(ctx, "erro ao listar documentos", err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDocumentListResponse(entries, pagination.Page, pagination.PageSize))
}

// Get busca um documento pelo ID
// @Summary Buscar documento
// @Description Retorna o documento da fila com a lista de artefatos armazenados
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do documento"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents/{id} [get]
func (c *FiscalController) Get(ctx *gin.Context) {
	entry, files, err := c.service.GetStatus(ctx, ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, "erro ao buscar documento", err)
		return
	}
	if entry.TenantID != ctx.GetString("tenant_id") {
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "documento não encontrado", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDocumentResponse(entry, files))
}

// DownloadFile baixa um artefato do documento
// @Summary Baixar artefato
// @Description Retorna o conteúdo binário do PDF ou XML do documento
// @Tags fiscal
// @Produce octet-stream
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do documento"
// @Param kind path string true "Tipo do artefato (pdf ou xml)"
// @Success 200 {file} binary
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents/{id}/files/{kind} [get]
func (c *FiscalController) DownloadFile(ctx *gin.Context) {
	kind := fiscal.FileKind(ctx.Param("kind"))
	if kind != fiscal.FilePDF && kind != fiscal.FileXML {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "tipo de arquivo inválido", "use pdf ou xml"))
		return
	}

	content, err := c.service.DownloadFile(ctx, ctx.Param("id"), kind)
	if err != nil {
		c.respondError(ctx, "erro ao baixar arquivo", err)
		return
	}

	contentType := "application/pdf"
	if kind == fiscal.FileXML {
		contentType = "application/xml"
	}
	ctx.Data(http.StatusOK, contentType, content)
}

// Retry reenfileira manualmente um documento FAILED/REJECTED
// @Summary Reenfileirar documento
// @Description Reinicia um documento em estado terminal de falha para PENDING
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do documento"
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents/{id}/retry [post]
func (c *FiscalController) Retry(ctx *gin.Context) {
	if err := c.service.Retry(ctx, ctx.Param("id")); err != nil {
		c.respondError(ctx, "erro ao reenfileirar documento", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("documento reenfileirado", nil))
}

// Process processa um documento específico imediatamente
// @Summary Processar documento
// @Description Envia um documento da fila ao provedor sem esperar o agendador
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do documento"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/documents/{id}/process [post]
func (c *FiscalController) Process(ctx *gin.Context) {
	id := ctx.Param("id")
	if _, err := c.worker.ProcessDocument(ctx, id); err != nil {
		c.respondError(ctx, "erro ao processar documento", err)
		return
	}

	entry, files, err := c.service.GetStatus(ctx, id)
	if err != nil {
		c.respondError(ctx, "erro ao buscar documento", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToDocumentResponse(entry, files))
}

// ProcessBatch dispara uma varredura da fila
// @Summary Processar fila
// @Description Processa um lote de documentos PENDING/RETRY de todos os tenants
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} fiscal.BatchResult
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/process [post]
func (c *FiscalController) ProcessBatch(ctx *gin.Context) {
	result, err := c.worker.ProcessPending(ctx)
	if err != nil {
		c.respondError(ctx, "erro ao processar fila", err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetQuota consulta a cota mensal do tenant
// @Summary Consultar cota
// @Description Retorna o consumo e o limite de documentos do mês corrente
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.QuotaResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/quota [get]
func (c *FiscalController) GetQuota(ctx *gin.Context) {
	check, err := c.quota.CheckQuota(ctx, ctx.GetString("tenant_id"))
	if err != nil {
		c.respondError(ctx, "erro ao verificar cota", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToQuotaResponse(check))
}

// GetUsage consulta os contadores de uso do mês corrente
// @Summary Consultar uso
// @Description Retorna os contadores de documentos aceitos do mês corrente
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.UsageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/usage [get]
func (c *FiscalController) GetUsage(ctx *gin.Context) {
	tenantID := ctx.GetString("tenant_id")
	now := time.Now()

	period, err := c.usage.FindPeriod(ctx, tenantID, now)
	if err != nil {
		c.respondError(ctx, "erro ao consultar uso", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToUsageResponse(tenantID, period, now))
}

// GetMetrics retorna os contadores de transição do processo
// @Summary Consultar métricas
// @Description Retorna os contadores acumulados de transições da fila
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]int64
// @Failure 401 {object} dto.ErrorResponse
// @Router /fiscal/metrics [get]
func (c *FiscalController) GetMetrics(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.metrics.Snapshot())
}

// GetConfiguration busca a configuração de faturação do tenant
// @Summary Buscar configuração
// @Description Retorna a configuração de faturação do tenant sem credenciais
// @Tags fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.ConfigurationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/configuration [get]
func (c *FiscalController) GetConfiguration(ctx *gin.Context) {
	config, err := c.configs.FindByTenant(ctx, ctx.GetString("tenant_id"))
	if err != nil {
		c.respondError(ctx, "erro ao buscar configuração", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToConfigurationResponse(config))
}

// SaveConfiguration cria ou atualiza a configuração de faturação do tenant
// @Summary Configurar faturação
// @Description Define a resolução DIAN e as credenciais do provedor do tenant
// @Tags fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param configuration body dto.ConfigurationRequest true "Dados da configuração"
// @Success 200 {object} dto.ConfigurationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/configuration [put]
func (c *FiscalController) SaveConfiguration(ctx *gin.Context) {
	var req dto.ConfigurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	tenantID := ctx.GetString("tenant_id")
	config, err := c.configs.FindByTenant(ctx, tenantID)
	created := false
	if err != nil {
		if !errors.Is(err, fiscal.ErrConfigurationNotFound) {
			c.respondError(ctx, "erro ao buscar configuração", err)
			return
		}
		config, err = fiscal.NewConfiguration(tenantID)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "erro ao criar configuração", err.Error()))
			return
		}
		created = true
	}

	if err := c.applyConfiguration(config, req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "configuração inválida", err.Error()))
		return
	}

	if created {
		err = c.configs.Create(ctx, config)
	} else {
		err = c.configs.Update(ctx, config)
	}
	if err != nil {
		c.respondError(ctx, "erro ao salvar configuração", err)
		return
	}

	c.logger.Info("configuração de faturação salva", "tenant_id", tenantID, "enabled", config.Enabled)
	ctx.JSON(http.StatusOK, dto.ToConfigurationResponse(config))
}

// UploadCertificate recebe e valida o certificado digital do tenant
// @Summary Enviar certificado digital
// @Description Valida o arquivo PKCS12 (.p12) e o vincula à configuração do tenant
// @Tags fiscal
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param certificate formData file true "Arquivo .p12"
// @Param password formData string true "Senha do certificado"
// @Success 200 {object} dto.CertificateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/certificate [post]
func (c *FiscalController) UploadCertificate(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("certificate")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "arquivo do certificado é obrigatório", err.Error()))
		return
	}
	password := ctx.PostForm("password")

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "erro ao ler certificado", err.Error()))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "erro ao ler certificado", err.Error()))
		return
	}

	info, err := pkcs12.Validate(data, password)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "certificado inválido", err.Error()))
		return
	}

	tenantID := ctx.GetString("tenant_id")
	config, err := c.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		c.respondError(ctx, "erro ao buscar configuração", err)
		return
	}

	config.AttachCertificate(data, password, info.Subject, info.NotAfter)
	if err := c.configs.Update(ctx, config); err != nil {
		c.respondError(ctx, "erro ao salvar certificado", err)
		return
	}

	c.logger.Info("certificado digital atualizado",
		"tenant_id", tenantID, "subject", info.Subject, "not_after", info.NotAfter)
	ctx.JSON(http.StatusOK, dto.CertificateResponse{
		Subject:   info.Subject,
		Issuer:    info.Issuer,
		NotBefore: info.NotBefore,
		NotAfter:  info.NotAfter,
	})
}

// applyConfiguration aplica a requisição sobre o modelo de domínio
func (c *FiscalController) applyConfiguration(config *fiscal.Configuration, req dto.ConfigurationRequest) error {
	if err := config.ConfigureResolution(req.ResolutionNumber, req.Prefix, req.StartingNumber, req.RangeEnd); err != nil {
		return err
	}
	if err := config.ConfigureProvider(req.ProviderURL, req.ProviderKey, req.ProviderSecret, req.CompanyNIT); err != nil {
		return err
	}
	if req.SupportDocResolution != "" || req.SupportDocPrefix != "" {
		config.ConfigureSupportDocs(req.SupportDocResolution, req.SupportDocPrefix)
	}
	if req.TaxRate > 0 {
		if err := config.SetTaxRate(req.TaxRate); err != nil {
			return err
		}
	}
	if req.Enabled {
		return config.Enable()
	}
	config.Disable()
	return nil
}

// respondError mapeia erros de domínio para o status HTTP adequado
func (c *FiscalController) respondError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fiscal.ErrDocumentNotFound),
		errors.Is(err, fiscal.ErrFileNotFound),
		errors.Is(err, fiscal.ErrConfigurationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fiscal.ErrProviderDisabled),
		errors.Is(err, fiscal.ErrConfigurationIncomplete),
		errors.Is(err, fiscal.ErrDocumentNotRetryable),
		errors.Is(err, fiscal.ErrDocumentNotProcessable),
		errors.Is(err, fiscal.ErrRangeExceeded):
		status = http.StatusConflict
	case errors.Is(err, fiscal.ErrInvalidKind),
		errors.Is(err, fiscal.ErrEmptySourceID):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		c.logger.Error(message, "error", err)
	}
	ctx.JSON(status, dto.NewErrorResponse(status, message, err.Error()))
}
