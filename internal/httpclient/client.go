package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/salt-ha/salt-ha/internal/utils"
)

const (
	HeaderAccept    = "Accept"
	HeaderAuthToken = "X-Auth-Token"

	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
)

// StatusError is returned when a remote endpoint answers with anything but 200.
// Body holds the raw response body so the caller can surface it.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: response status code: %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: response status code: %d: %s", e.Method, e.URL, e.Code, body)
}

// HttpClient is a wrapper around the resty.Client
type HttpClient struct {
	Client *resty.Client
}

func New() *HttpClient {
	return &HttpClient{Client: resty.New()}
}

func NewWithClient(client *resty.Client) *HttpClient {
	return &HttpClient{Client: client}
}

// Get performs a GET request. If res is not nil, the JSON body is decoded into it.
func (c *HttpClient) Get(ctx context.Context, url string, headers map[string]string, res interface{}) (*resty.Response, error) {
	slog.Debug("GET", "url", url)
	req := c.request(ctx, headers, res)
	return check(req.Get(url))
}

// PostForm performs a form-encoded POST request.
func (c *HttpClient) PostForm(ctx context.Context, url string, headers map[string]string, form map[string]string, res interface{}) (*resty.Response, error) {
	slog.Debug("POST", "url", url, "fields", utils.GetKeys(form))
	req := c.request(ctx, headers, res).SetFormData(form)
	return check(req.Post(url))
}

// PostJSON performs a POST request with a JSON encoded body.
func (c *HttpClient) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}, res interface{}) (*resty.Response, error) {
	slog.Debug("POST", "url", url, "body", body)
	req := c.request(ctx, headers, res).
		SetHeader("Content-Type", ContentTypeJSON).
		SetBody(body)
	return check(req.Post(url))
}

func (c *HttpClient) request(ctx context.Context, headers map[string]string, res interface{}) *resty.Request {
	req := c.Client.R().SetContext(ctx).SetHeaders(headers)
	if res != nil {
		// salt-api does not always label its JSON replies
		req.SetResult(res).ForceContentType(ContentTypeJSON)
	}
	return req
}

func check(response *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return response, errors.WithMessage(err, "request failed")
	}

	if response == nil {
		return nil, errors.New("response is nil")
	}

	if response.StatusCode() != http.StatusOK {
		return response, &StatusError{
			Method: response.Request.Method,
			URL:    response.Request.URL,
			Code:   response.StatusCode(),
			Body:   response.String(),
		}
	}

	return response, nil
}
