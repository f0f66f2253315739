package facturante

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// Client implementa fiscal.Provider contra a API REST do provedor
// tecnológico. Falhas de rede e respostas 5xx são repetidas com backoff
// antes de voltarem como erro; rejeições de negócio (4xx com envelope de
// erros) voltam como ProviderResponse com Success=false.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	companyNIT string
	log        logger.Logger
}

// NewClient cria um cliente do provedor com as credenciais do tenant
func NewClient(baseURL, apiKey, apiSecret, companyNIT string, log logger.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &Client{
		httpClient: rc.StandardClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		companyNIT: companyNIT,
		log:        log,
	}
}

// Submit implementa fiscal.Provider.Submit
func (c *Client) Submit(ctx context.Context, payload *fiscal.InvoicePayload) (*fiscal.ProviderResponse, error) {
	return c.postDocument(ctx, "/api/v1/invoices", payload)
}

// SubmitCreditNote implementa fiscal.Provider.SubmitCreditNote
func (c *Client) SubmitCreditNote(ctx context.Context, payload *fiscal.CreditNotePayload) (*fiscal.ProviderResponse, error) {
	return c.postDocument(ctx, "/api/v1/credit-notes", payload)
}

// SubmitDebitNote implementa fiscal.Provider.SubmitDebitNote
func (c *Client) SubmitDebitNote(ctx context.Context, payload *fiscal.DebitNotePayload) (*fiscal.ProviderResponse, error) {
	return c.postDocument(ctx, "/api/v1/debit-notes", payload)
}

// GetLastDocument implementa fiscal.Provider.GetLastDocument
func (c *Client) GetLastDocument(ctx context.Context, resolutionNumber, prefix string) (int64, error) {
	endpoint := fmt.Sprintf("/api/v1/numbering/last?resolution=%s&prefix=%s",
		url.QueryEscape(resolutionNumber), url.QueryEscape(prefix))

	resp, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if !resp.Success || resp.Data == nil {
		return 0, fmt.Errorf("falha ao consultar numeração: %s", resp.ErrorMessage())
	}
	if resp.Data.Number == "" {
		return 0, nil
	}
	last, err := strconv.ParseInt(resp.Data.Number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("número inválido retornado pelo provedor: %q", resp.Data.Number)
	}
	return last, nil
}

// GetStatusByTrackID implementa fiscal.Provider.GetStatusByTrackID
func (c *Client) GetStatusByTrackID(ctx context.Context, trackID string) (*fiscal.ProviderResponse, error) {
	endpoint := "/api/v1/documents/" + url.PathEscape(trackID) + "/status"
	return c.doJSON(ctx, http.MethodGet, endpoint, nil)
}

// DownloadPDF implementa fiscal.Provider.DownloadPDF
func (c *Client) DownloadPDF(ctx context.Context, trackID string) ([]byte, error) {
	endpoint := "/api/v1/documents/" + url.PathEscape(trackID) + "/pdf"

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha ao baixar PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("falha ao baixar PDF: status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler PDF: %w", err)
	}
	return content, nil
}

// postDocument envia um payload de documento e interpreta a resposta
func (c *Client) postDocument(ctx context.Context, endpoint string, payload interface{}) (*fiscal.ProviderResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar payload: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, endpoint, body)
}

// doJSON executa a requisição e desserializa o envelope de resposta.
// Respostas 4xx carregam o envelope com os erros de validação do provedor:
// não são erro de transporte.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte) (*fiscal.ProviderResponse, error) {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha na chamada ao provedor: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler resposta do provedor: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("provedor indisponível: status %d", resp.StatusCode)
	}

	var parsed fiscal.ProviderResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("resposta inválida do provedor (status %d): %w", resp.StatusCode, err)
	}
	return &parsed, nil
}

// newRequest monta a requisição com as credenciais do tenant
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("falha ao montar requisição: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Secret", c.apiSecret)
	req.Header.Set("X-Company-NIT", c.companyNIT)
	return req, nil
}
