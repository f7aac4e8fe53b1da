// Package client is a typed client for the Aperture HTTP API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aperture/internal/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Client calls the API at BaseURL. It is safe for sequential use; SetToken is not synchronized.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// New returns a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: defaultTimeout}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// BaseURL returns the API origin.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	form   *multipartBody
}

type multipartBody struct {
	fields map[string]string
	files  []*fiber.FormFile
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The agent returns itself to the pool once Bytes is called.
	a := fiber.AcquireAgent()

	target := c.baseURL + "/api" + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	a.Request().Header.SetMethod(req.method)
	a.Request().SetRequestURI(target)
	a.Timeout(c.timeoutFor(ctx))
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}

	switch {
	case req.form != nil:
		args := fiber.AcquireArgs()
		defer fiber.ReleaseArgs(args)
		for k, v := range req.form.fields {
			args.Set(k, v)
		}
		a.FileData(req.form.files...).MultipartForm(args)
	case req.body != nil:
		a.JSONEncoder(json.Marshal).JSON(req.body)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("prepare %s %s: %w", req.method, req.path, err)
	}

	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", req.method, req.path, errs[0])
	}

	if status >= fiber.StatusBadRequest {
		var envelope models.ErrorResponse
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
			envelope.Message = strings.TrimSpace(string(body))
		}
		return &APIError{Status: status, Code: envelope.Code, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < c.timeout {
			return d
		}
	}
	return c.timeout
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func idPath(format string, id uint) string {
	return fmt.Sprintf(format, id)
}
