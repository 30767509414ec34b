package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
)

type httpTransport struct {
	opts   *Options
	client *http.Client
}

/**
 * Create the HTTP transport of the control API
 * @param {*Options} opts - Address and timeout, nil for DefaultOptions
 * @returns {Transport} Transport backed by net/http
 * @example
 * t := NewTransport(nil)
 * defer t.Close()
 * reply, err := t.Get("/healthz", nil)
 */
func NewTransport(opts *Options) Transport {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &httpTransport{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// send returns a Reply for every answer, errors are transport or encoding failures only
func (t *httpTransport) send(method, path string, query url.Values, body interface{}) (*Reply, error) {
	target, err := endpoint(t.opts.base(), path, query)
	if err != nil {
		return nil, err
	}
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debugf("%s %s", method, target)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("control API unreachable: %w", err)
	}
	return readReply(resp)
}

func (t *httpTransport) Get(path string, query url.Values) (*Reply, error) {
	return t.send(http.MethodGet, path, query, nil)
}

func (t *httpTransport) Post(path string, body interface{}) (*Reply, error) {
	return t.send(http.MethodPost, path, nil, body)
}

func (t *httpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// APIError is a non-2xx answer of the control API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

const apiPrefix = "/launcher/api/v1"

/**
 * LauncherClient drives a launcher running `serve`
 * @description
 * - Typed wrappers of the /launcher/api/v1 routes
 * - Non-2xx answers come back as *APIError
 */
type LauncherClient struct {
	t Transport
}

func NewLauncherClient(t Transport) *LauncherClient {
	if t == nil {
		t = NewTransport(nil)
	}
	return &LauncherClient{t: t}
}

func (l *LauncherClient) Close() error {
	return l.t.Close()
}

// into checks the reply and decodes it into v when v is not nil
func into(reply *Reply, err error, v interface{}) error {
	if err != nil {
		return err
	}
	if !reply.OK() {
		return &APIError{StatusCode: reply.Status, Code: reply.Code, Message: reply.Message}
	}
	if v == nil {
		return nil
	}
	return reply.Decode(v)
}

func (l *LauncherClient) status(reply *Reply, err error) (*models.LauncherStatus, error) {
	var st models.LauncherStatus
	if err := into(reply, err, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Status 查询服务器状态
func (l *LauncherClient) Status() (*models.LauncherStatus, error) {
	return l.status(l.t.Get(apiPrefix+"/server/status", nil))
}

/**
 * Start the server
 * @param {int} port - Port, 0 for the saved one
 * @returns {*models.LauncherStatus} Status after the start
 */
func (l *LauncherClient) Start(port int) (*models.LauncherStatus, error) {
	return l.status(l.t.Post(apiPrefix+"/server/start", &models.StartRequest{Port: port}))
}

// Stop 停止服务器，等待进程退出
func (l *LauncherClient) Stop() (*models.LauncherStatus, error) {
	return l.status(l.t.Post(apiPrefix+"/server/stop", nil))
}

/**
 * Read server output
 * @param {int64} since - Last sequence number already printed
 * @param {int} limit - Maximum number of lines
 * @returns {[]models.LogLine} Lines in output order
 */
func (l *LauncherClient) Logs(since int64, limit int) ([]models.LogLine, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatInt(since, 10))
	query.Set("limit", strconv.Itoa(limit))

	var lines []models.LogLine
	reply, err := l.t.Get(apiPrefix+"/logs", query)
	if err := into(reply, err, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Health 查询控制服务健康状态
func (l *LauncherClient) Health() (*models.HealthResponse, error) {
	var h models.HealthResponse
	reply, err := l.t.Get("/healthz", nil)
	if err := into(reply, err, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Reload 通知控制服务重新读取 launcher.yaml
func (l *LauncherClient) Reload() error {
	reply, err := l.t.Post(apiPrefix+"/reload", nil)
	return into(reply, err, nil)
}
