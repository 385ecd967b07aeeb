// Package botapi is the HTTP transport to the Telegram Bot API and the
// request builders layered on it.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second
)

// Params are the fields of a Bot API request.
type Params map[string]any

// InputFile is a file uploaded with a request. Either Reader or Path must be set.
type InputFile struct {
	Name   string
	Reader io.Reader
	Path   string
}

// FilePath returns an InputFile read from disk at request time.
func FilePath(path string) InputFile {
	return InputFile{Name: filepath.Base(path), Path: path}
}

// FileReader returns an InputFile streamed from r.
func FileReader(name string, r io.Reader) InputFile {
	return InputFile{Name: name, Reader: r}
}

// ResponseParameters carries hints Telegram attaches to some failures.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Response is the decoded body of every Bot API call.
type Response struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// Decode unmarshals the result field into v.
func (r *Response) Decode(v any) error {
	if len(r.Result) == 0 {
		return errors.New("response has no result")
	}
	dec := json.NewDecoder(bytes.NewReader(r.Result))
	dec.UseNumber()
	return errors.Wrap(dec.Decode(v), "decode result")
}

// APIError is returned for non-2xx responses and for ok=false bodies.
type APIError struct {
	Method      string
	StatusCode  int
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d on %s: %s", e.StatusCode, e.Method, e.Description)
}

// Client sends requests to the Telegram Bot API.
type Client struct {
	botToken string
	client   *http.Client
	baseURL  string
}

// New creates a Bot API client for botToken.
func New(botToken string) *Client {
	return &Client{
		botToken: botToken,
		client:   &http.Client{Timeout: defaultTimeout},
		baseURL:  defaultBaseURL,
	}
}

// WithBaseURL sets a custom base URL (for testing or a local Bot API server).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Long polling needs a
// client timeout longer than the poll timeout.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Request calls method with params. With files present the request is sent
// as multipart/form-data, otherwise as a JSON body.
func (c *Client) Request(ctx context.Context, method string, params Params, files map[string]InputFile) (*Response, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)

	var (
		body        io.Reader
		contentType string
		err         error
	)
	switch {
	case len(files) > 0:
		body, contentType, err = multipartBody(params, files)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s form", method)
		}
	case len(params) > 0:
		data, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s params", method)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Strip the URL from the error; it contains the bot token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Wrapf(err, "telegram request %s", method)
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(method, resp.StatusCode, &out)
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(decodeErr, "decode %s response", method)
	}
	if !out.OK {
		return nil, apiError(method, resp.StatusCode, &out)
	}
	return &out, nil
}

func apiError(method string, status int, r *Response) *APIError {
	e := &APIError{
		Method:      method,
		StatusCode:  status,
		Code:        r.ErrorCode,
		Description: r.Description,
	}
	if e.Description == "" {
		e.Description = http.StatusText(status)
	}
	if r.Parameters != nil {
		e.RetryAfter = r.Parameters.RetryAfter
	}
	return e
}

func multipartBody(params Params, files map[string]InputFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		default:
			data, err := json.Marshal(x)
			if err != nil {
				return nil, "", errors.Wrapf(err, "encode field %s", k)
			}
			s = string(data)
		}
		if err := w.WriteField(k, s); err != nil {
			return nil, "", err
		}
	}

	fields := make([]string, 0, len(files))
	for k := range files {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := writeFile(w, field, files[field]); err != nil {
			return nil, "", errors.Wrapf(err, "attach %s", field)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, f InputFile) error {
	r := f.Reader
	if r == nil {
		if f.Path == "" {
			return errors.New("input file has neither reader nor path")
		}
		file, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}

	name := f.Name
	if name == "" {
		name = field
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}
