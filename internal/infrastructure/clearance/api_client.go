// Package clearance implementa el cliente HTTP hacia el servicio remoto de
// clearance: recibe el sobre {invoice: base64, uuid} y devuelve el veredicto.
package clearance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
	"github.com/jhoicas/clearance-gateway/pkg/config"
)

const submitPath = "/api/v1/invoices/clearance"

// APIClient implementa el puerto ClearanceSubmitter sobre HTTP/JSON.
// El timeout de red es generoso (60 s): la autoridad puede tardar varios
// segundos en validar el documento.
type APIClient struct {
	httpClient *http.Client
	cfg        config.ClearanceConfig
}

// NewAPIClient construye el cliente.
func NewAPIClient(cfg config.ClearanceConfig) *APIClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cfg:        cfg,
	}
}

var _ appinvoicing.ClearanceSubmitter = (*APIClient)(nil)

// submitResponse respuesta JSON del servicio de clearance.
type submitResponse struct {
	TrackID  string   `json:"track_id"`
	Accepted bool     `json:"accepted"`
	Errors   []string `json:"errors"`
}

// Submit envía el sobre al ambiente indicado y traduce la respuesta.
// Un rechazo de la autoridad NO es un error de transporte: se devuelve
// Accepted=false con los mensajes; error solo ante fallo de red/protocolo.
func (c *APIClient) Submit(ctx context.Context, envelope *ubl.Envelope, environment string) (*appinvoicing.SubmitResult, error) {
	baseURL := c.cfg.BaseURLSandbox
	if environment == entity.EnvProduction {
		baseURL = c.cfg.BaseURLProd
	}
	if baseURL == "" {
		return nil, fmt.Errorf("clearance: URL base no configurada para %q", environment)
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("clearance: serializar sobre: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+submitPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("clearance: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("clearance: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("clearance: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("clearance: leer respuesta: %w", err)
	}
	rawBody = toUTF8(rawBody)

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("clearance: servicio respondió %d: %s", resp.StatusCode, string(rawBody))
	}

	var out submitResponse
	if err := json.Unmarshal(rawBody, &out); err != nil {
		// Respuesta no parseable: veredicto negativo con el raw, no abortar.
		return &appinvoicing.SubmitResult{
			Accepted: false,
			Errors:   fmt.Sprintf("respuesta no parseable (%d): %s", resp.StatusCode, string(rawBody)),
		}, nil
	}

	return &appinvoicing.SubmitResult{
		TrackID:  out.TrackID,
		Accepted: out.Accepted && resp.StatusCode < http.StatusBadRequest,
		Errors:   strings.Join(out.Errors, "; "),
	}, nil
}

// toUTF8 normaliza respuestas en Latin-1: algunas autoridades responden
// ISO-8859-1 y los mensajes de rechazo llegan con acentos rotos si se
// interpretan como UTF-8.
func toUTF8(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return decoded
}
