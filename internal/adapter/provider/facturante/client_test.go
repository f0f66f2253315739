package facturante

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "key-123", "secret-456", "900123456", logger.NewLogger())
	return client, server
}

func invoicePayload() *fiscal.InvoicePayload {
	return &fiscal.InvoicePayload{
		Kind:             fiscal.KindPOS,
		ResolutionNumber: "18760000001",
		Prefix:           "SETP",
		Number:           42,
	}
}

func TestSubmitSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "secret-456", r.Header.Get("X-Api-Secret"))
		assert.Equal(t, "900123456", r.Header.Get("X-Company-NIT"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload fiscal.InvoicePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, int64(42), payload.Number)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{TrackID: "track-1", CUFE: "cufe-abc", QRCode: "qr"},
		})
	}))

	resp, err := client.Submit(context.Background(), invoicePayload())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "track-1", resp.Data.TrackID)
	assert.Equal(t, "cufe-abc", resp.Data.CUFE)
}

func TestSubmitValidationRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: false,
			Errors:  []string{"NIT do adquirente inválido", "resolução vencida"},
		})
	}))

	// Rejeição de negócio não é erro de transporte
	resp, err := client.Submit(context.Background(), invoicePayload())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "NIT do adquirente inválido; resolução vencida", resp.ErrorMessage())
}

func TestSubmitServerErrorRetriesThenFails(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Submit(context.Background(), invoicePayload())
	require.Error(t, err)
	// 1 tentativa + 2 retries com backoff
	assert.Equal(t, int32(3), attempts.Load())
}

func TestSubmitServerRecoversOnRetry(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{TrackID: "track-1", CUFE: "cufe-abc"},
		})
	}))

	resp, err := client.Submit(context.Background(), invoicePayload())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSubmitCreditNoteEndpoint(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/credit-notes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{Success: true, Data: &fiscal.ProviderResponseData{TrackID: "t"}})
	}))

	resp, err := client.SubmitCreditNote(context.Background(), &fiscal.CreditNotePayload{Kind: fiscal.KindPOSCreditNote})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestGetLastDocument(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/numbering/last", r.URL.Path)
		assert.Equal(t, "18760000001", r.URL.Query().Get("resolution"))
		assert.Equal(t, "SETP", r.URL.Query().Get("prefix"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{Number: "1874"},
		})
	}))

	last, err := client.GetLastDocument(context.Background(), "18760000001", "SETP")
	require.NoError(t, err)
	assert.Equal(t, int64(1874), last)
}

func TestGetLastDocumentWithoutEmissions(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{Number: ""},
		})
	}))

	// Resolução sem emissões: próxima numeração começa do zero
	last, err := client.GetLastDocument(context.Background(), "18760000001", "SETP")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
}

func TestGetLastDocumentInvalidNumber(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{Number: "SETP-1874"},
		})
	}))

	_, err := client.GetLastDocument(context.Background(), "18760000001", "SETP")
	assert.Error(t, err)
}

func TestGetStatusByTrackID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents/track-1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fiscal.ProviderResponse{
			Success: true,
			Data:    &fiscal.ProviderResponseData{TrackID: "track-1", CUFE: "cufe-abc"},
		})
	}))

	resp, err := client.GetStatusByTrackID(context.Background(), "track-1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "cufe-abc", resp.Data.CUFE)
}

func TestDownloadPDF(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents/track-1/pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 conteudo"))
	}))

	content, err := client.DownloadPDF(context.Background(), "track-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 conteudo"), content)
}

func TestDownloadPDFNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.DownloadPDF(context.Background(), "track-1")
	assert.Error(t, err)
}

func TestSubmitContextTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Submit(ctx, invoicePayload())
	assert.Error(t, err)
}
