package fiscal

import "errors"

var (
	ErrEmptyTenantID         = errors.New("tenant ID não pode ser vazio")
	ErrEmptySourceID         = errors.New("source ID não pode ser vazio")
	ErrInvalidKind           = errors.New("tipo de documento inválido")
	ErrInvalidDocumentNumber = errors.New("número de documento inválido")

	// ErrRangeExceeded indica que o intervalo de numeração autorizado pela
	// resolução foi esgotado. Condição fatal: exige uma nova resolução
	// configurada pelo operador, nenhum número é consumido.
	ErrRangeExceeded = errors.New("intervalo de numeração da resolução esgotado")

	ErrEmptyResolution            = errors.New("número de resolução é obrigatório")
	ErrEmptyPrefix                = errors.New("prefixo é obrigatório")
	ErrInvalidStartingNumber      = errors.New("número inicial deve ser maior ou igual a zero")
	ErrInvalidRange               = errors.New("fim do intervalo deve ser maior que o número inicial")
	ErrInvalidTaxRate             = errors.New("percentual de IVA inválido")
	ErrMissingProviderCredentials = errors.New("credenciais do provedor não configuradas")
	ErrEmptyCompanyNIT            = errors.New("NIT da empresa é obrigatório")

	ErrConfigurationNotFound   = errors.New("configuração de faturação não encontrada")
	ErrConfigurationIncomplete = errors.New("configuração de faturação incompleta")
	ErrProviderDisabled        = errors.New("faturação eletrônica não habilitada para o tenant")

	ErrDocumentNotFound       = errors.New("documento não encontrado na fila")
	ErrDocumentNotRetryable   = errors.New("documento não está em estado retentável")
	ErrDocumentNotProcessable = errors.New("documento já está em estado terminal")
	ErrFileNotFound           = errors.New("arquivo do documento não encontrado")

	ErrCannotBuildPayload        = errors.New("não foi possível montar o payload do documento")
	ErrReferenceDocumentNotFound = errors.New("documento de referência aceito não encontrado")
)
