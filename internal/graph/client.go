// Package graph es el cliente del backend gestionado de consultas tipo
// GraphQL. Cada lectura elige la credencial según el tier:
//   - Primary: API key pública (header x-api-key)
//   - Secondary: token de sesión del usuario, o el service token configurado
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// ErrNoCredential el tier pedido no tiene credencial disponible.
var ErrNoCredential = errors.New("graph: no credential for tier")

// Config del cliente.
type Config struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	ServiceToken string        `yaml:"service_token"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Client habla con el endpoint por HTTP.
type Client struct {
	endpoint     string
	apiKey       string
	serviceToken string
	http         *http.Client
}

var _ repository.QuestionRepository = (*Client)(nil)

// Option configura un Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client (tests).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		serviceToken: cfg.ServiceToken,
		http:         &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

// Error agrupa los errores que devolvió el endpoint.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("graph: http %d", e.Status)
	}
	return "graph: " + strings.Join(e.Messages, "; ")
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return repository.ErrUnauthorized
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request, tier credtier.Tier) error {
	switch tier {
	case credtier.Primary:
		if c.apiKey == "" {
			return fmt.Errorf("%w %s", ErrNoCredential, tier)
		}
		req.Header.Set("x-api-key", c.apiKey)
	default:
		token := c.serviceToken
		if s := auth.FromContext(ctx); s != nil && s.Token != "" {
			token = s.Token
		}
		if token == "" {
			return fmt.Errorf("%w %s", ErrNoCredential, tier)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// do ejecuta una operación y retorna data[field].
func (c *Client) do(ctx context.Context, tier credtier.Tier, field string, r request, header http.Header) (json.RawMessage, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("graph: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	if err := c.authorize(ctx, req, tier); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph: %s: %w", field, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("graph: read %s: %w", field, err)
	}

	logger.From(ctx).Debug("graph request",
		logger.Component("graph"), logger.Op(field), logger.Tier(tier.String()),
		logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Status: resp.StatusCode}
		for _, ge := range env.Errors {
			e.Messages = append(e.Messages, ge.Message)
		}
		return nil, e
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("graph: decode %s: %w", field, decodeErr)
	}
	if len(env.Errors) > 0 {
		e := &Error{Status: resp.StatusCode}
		for _, ge := range env.Errors {
			e.Messages = append(e.Messages, ge.Message)
		}
		return nil, e
	}
	return env.Data[field], nil
}

// Ping hace una consulta trivial con la credencial Primary.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, credtier.Primary, "__typename", request{Query: "query { __typename }"}, nil)
	return err
}

// Close libera conexiones ociosas.
func (c *Client) Close() { c.http.CloseIdleConnections() }
