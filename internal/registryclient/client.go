package registryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Default settings.
const (
	defaultTimeout = 15 * time.Second
	devicesPath    = "/api/devices"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config controls how the client reaches the registry.
type Config struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client // optional; overrides Timeout
}

// Client talks to the registry REST API.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for the registry at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("registryclient: base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("registryclient: invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("registryclient: base url %q must be absolute", cfg.BaseURL)
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: u, http: httpClient}, nil
}

// ListDevices fetches the full collection in registry order.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	var devices []device.Device
	if err := c.do(ctx, http.MethodGet, devicesPath, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice fetches one device by id.
func (c *Client) GetDevice(ctx context.Context, id uint64) (*device.Device, error) {
	var dev device.Device
	if err := c.do(ctx, http.MethodGet, devicesPath+"/"+strconv.FormatUint(id, 10), nil, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// CreateDevice submits a create request and returns the anchored device.
func (c *Client) CreateDevice(ctx context.Context, in device.Input) (*device.Device, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("registryclient: encoding create request: %w", err)
	}

	var dev device.Device
	if err := c.do(ctx, http.MethodPost, devicesPath, body, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	endpoint := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("registryclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registryclient: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func newStatusError(resp *http.Response) *StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
