package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MKhiriev/wallet-cloud-sync/internal/config"
	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/propagation"
)

var _ engine.RemoteRecordStore = (*RecordStoreClient)(nil)

// RecordStoreClient is the HTTP implementation of [RecordStore]. It is safe
// for concurrent use by the coordinators of every domain.
type RecordStoreClient struct {
	client *utils.HTTPClient
	tracer *tracing.Tracer
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewRecordStoreClient normalises cfg.HTTPAddress and builds the client.
func NewRecordStoreClient(cfg config.Adapter, tracer *tracing.Tracer, log *logger.Logger) (*RecordStoreClient, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}
	if tracer == nil {
		tracer = tracing.Nop()
	}

	return &RecordStoreClient{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		tracer: tracer,
		logger: log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken stores the bearer token used by every following request.
func (c *RecordStoreClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *RecordStoreClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ── account ──────────────────────────────────────────────────────────────────

func (c *RecordStoreClient) Register(ctx context.Context, login, authHash string) (string, error) {
	return c.account(ctx, "/api/auth/register", login, authHash)
}

func (c *RecordStoreClient) Login(ctx context.Context, login, authHash string) (string, error) {
	return c.account(ctx, "/api/auth/login", login, authHash)
}

func (c *RecordStoreClient) account(ctx context.Context, route, login, authHash string) (string, error) {
	var result models.TokenResponse

	resp, err := c.do(ctx, http.MethodPost, route, false, func(r *resty.Request) *resty.Request {
		return r.SetBody(models.User{Login: login, AuthHash: authHash}).SetResult(&result)
	})
	if err != nil {
		return "", err
	}
	if err = mapAuthError(resp); err != nil {
		return "", err
	}

	// the token may come in the body or in the Authorization header
	token := result.Token
	if token == "" {
		if token, err = utils.ParseBearerToken(resp.Header().Get("Authorization")); err != nil {
			return "", fmt.Errorf("parse bearer token: %w", err)
		}
	}

	c.SetToken(token)
	return token, nil
}

// ── records ──────────────────────────────────────────────────────────────────

func (c *RecordStoreClient) CreateContainer(ctx context.Context, container string) error {
	resp, err := c.do(ctx, http.MethodPut, containerPath(container), true, nil)
	if err != nil {
		return err
	}
	return mapHTTPError(resp)
}

func (c *RecordStoreClient) DeleteContainer(ctx context.Context, container string) error {
	resp, err := c.do(ctx, http.MethodDelete, containerPath(container), true, nil)
	if err != nil {
		return err
	}
	return mapHTTPError(resp)
}

func (c *RecordStoreClient) Modify(ctx context.Context, container string, req models.ModifyRequest) ([]models.ItemResult, error) {
	var result models.ModifyResponse

	resp, err := c.do(ctx, http.MethodPost, containerPath(container)+"/records/modify", true, func(r *resty.Request) *resty.Request {
		return r.SetBody(req).SetResult(&result)
	})
	if err != nil {
		return nil, err
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *RecordStoreClient) Query(ctx context.Context, container string, q models.RecordQuery) (models.RecordPage, error) {
	var page models.RecordPage

	resp, err := c.do(ctx, http.MethodPost, containerPath(container)+"/records/query", true, func(r *resty.Request) *resty.Request {
		return r.SetBody(q).SetResult(&page)
	})
	if err != nil {
		return models.RecordPage{}, err
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RecordPage{}, err
	}
	return page, nil
}

func (c *RecordStoreClient) FetchMetadata(ctx context.Context, container string, recordIDs []string) ([]models.RecordMetadata, error) {
	var result models.MetadataResponse

	resp, err := c.do(ctx, http.MethodPost, containerPath(container)+"/records/metadata", true, func(r *resty.Request) *resty.Request {
		return r.SetBody(models.MetadataRequest{RecordIDs: recordIDs}).SetResult(&result)
	})
	if err != nil {
		return nil, err
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return result.Metadata, nil
}

// do sends one request inside a client span. Transport failures are
// returned as is so cancellation stays visible to errors.Is.
func (c *RecordStoreClient) do(ctx context.Context, method, route string, authed bool, build func(*resty.Request) *resty.Request) (*resty.Response, error) {
	ctx, span := c.tracer.StartClientRequest(ctx, method, route)

	req := c.client.R().SetContext(ctx)
	if method != http.MethodGet && method != http.MethodDelete {
		req.SetHeader("Content-Type", "application/json")
	}
	if token := c.Token(); authed && token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))
	if build != nil {
		req = build(req)
	}

	resp, err := req.Execute(method, route)
	if err != nil {
		tracing.EndRequest(span, 0, err)
		c.logger.Debug().Err(err).Str("func", "*RecordStoreClient.do").Str("route", route).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, route, err)
	}

	tracing.EndRequest(span, resp.StatusCode(), nil)
	return resp, nil
}

func containerPath(container string) string {
	return "/api/containers/" + url.PathEscape(container)
}
