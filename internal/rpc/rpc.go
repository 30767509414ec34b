package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"handover-launcher/internal/config"
)

// fallbackAddress is used when server.address is empty
const fallbackAddress = "127.0.0.1:8499"

// Transport sends requests to the control API of a launcher running `serve`
type Transport interface {
	Get(path string, query url.Values) (*Reply, error)
	Post(path string, body interface{}) (*Reply, error)
	Close() error
}

// Options 控制接口客户端参数
type Options struct {
	Address string        // host:port of the control API
	Timeout time.Duration // per request, 0 means no limit
	BaseURL string        // overrides Address when set
}

// DefaultOptions targets server.address with a 10s timeout
func DefaultOptions() *Options {
	addr := config.App().Server.Address
	if addr == "" {
		addr = fallbackAddress
	}
	return &Options{Address: addr, Timeout: 10 * time.Second}
}

// WithAddress points the options at another control API
func (o *Options) WithAddress(addr string) *Options {
	o.Address = addr
	o.BaseURL = ""
	return o
}

func (o *Options) base() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return "http://" + o.Address
}

// Reply is one answer of the control API, whatever its status
type Reply struct {
	Status  int
	Body    []byte
	Code    string // error code of a failed call, e.g. server.not_running
	Message string // error text of a failed call
}

func (r *Reply) OK() bool {
	return r.Status/100 == 2
}

func (r *Reply) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// endpoint joins base and path and appends the query
func endpoint(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func encodeBody(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

/**
 * Read a response into a Reply
 * @param {*http.Response} resp - Response, its body is closed here
 * @returns {*Reply} Reply, failed calls carry Code and Message
 * @description
 * - Error bodies are {"code": "...", "error": "..."}, anything else is kept as plain text
 */
func readReply(resp *http.Response) (*Reply, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	r := &Reply{Status: resp.StatusCode, Body: body}
	if r.OK() {
		return r, nil
	}

	text := strings.TrimSpace(string(body))
	switch {
	case text == "":
		r.Message = resp.Status
	case gjson.Valid(text) && gjson.Get(text, "error").Exists():
		r.Code = gjson.Get(text, "code").String()
		r.Message = gjson.Get(text, "error").String()
	default:
		r.Message = text
	}
	if r.Message == "" {
		r.Message = resp.Status
	}
	return r, nil
}
