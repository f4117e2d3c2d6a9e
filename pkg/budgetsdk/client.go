package budgetsdk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DefaultTimeout = 10 * time.Second

	// LoginPath is where the Navigator is pointed after a 401.
	LoginPath = "/login"
)

// Credentials is the token cell the client reads before every request and
// clears on a 401.
type Credentials interface {
	Get() (string, bool)
	Clear()
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

type Config struct {
	BaseURL     string        // Optional: API root including /api (default: DefaultBaseURL)
	Timeout     time.Duration // Optional: per-request timeout (default: DefaultTimeout)
	Credentials Credentials   // Required
	Navigator   Navigator     // Optional: nil means 401s only clear the credentials
	Logger      *slog.Logger
}

type Client struct {
	http   *resty.Client
	creds  Credentials
	nav    Navigator
	logger *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, errors.New("budgetsdk: credentials are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Navigator == nil {
		cfg.Navigator = NavigatorFunc(func(context.Context, string) {})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		creds:  cfg.Credentials,
		nav:    cfg.Navigator,
		logger: cfg.Logger.With("component", "budgetsdk"),
	}
	c.http = resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetLogger(slogx.RestyLogger{Logger: c.logger}).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.authorize).
		OnAfterResponse(c.handleUnauthorized)

	return c, nil
}

// do sends one request and decodes a 2xx body into out (if non-nil).
func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out any) error {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return &APIError{Method: method, Path: path, kind: ErrRequestFailed, cause: err}
	}

	if !resp.IsSuccess() {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Detail:     detailFrom(resp.Body()),
			kind:       ErrRequestFailed,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Detail:     "malformed response",
			kind:       ErrRequestFailed,
			cause:      err,
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.http.R(), http.MethodGet, path, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, c.http.R().SetBody(body), http.MethodPost, path, out)
}

func malformed(method, path, detail string) error {
	return &APIError{Method: method, Path: path, Detail: detail, kind: ErrRequestFailed}
}
