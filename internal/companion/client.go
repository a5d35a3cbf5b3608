// Package companion calls the helper web application that runs next to each
// Salt master and writes sys states and pillar data into its git backend.
package companion

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salt-ha/salt-ha/internal/httpclient"
)

const (
	AddSysStateEndpoint      = "/add_sys_state/"
	CreatePillarDataEndpoint = "/create_pillar_data/"
)

type SysStateRequest struct {
	Pattern       *string `json:"pattern"`
	Orchestration *string `json:"orchestration"`
}

type PillarDataRequest struct {
	StackID     string         `json:"stackid"`
	Environment string         `json:"env_var"`
	Pillar      map[string]any `json:"pillardata_dict"`
	Pattern     *string        `json:"pattern"`
}

type Client struct {
	http    *httpclient.HttpClient
	baseURL string
}

// New creates a Client for http://master:port.
func New(client *httpclient.HttpClient, master string, port int) *Client {
	return &Client{
		http:    client,
		baseURL: fmt.Sprintf("http://%s", net.JoinHostPort(master, strconv.Itoa(port))),
	}
}

var headers = map[string]string{httpclient.HeaderAccept: httpclient.ContentTypeYAML}

// AddSysState injects the sys state of a pattern if it is not there yet.
func (c *Client) AddSysState(ctx context.Context, request SysStateRequest) error {
	slog.Info("Injecting sys state", "url", c.baseURL)
	if _, err := c.http.PostJSON(ctx, c.baseURL+AddSysStateEndpoint, headers, request, nil); err != nil {
		return errors.WithMessage(err, "could not add sys state")
	}
	return nil
}

// CreatePillarData stores the pillar of a stack.
func (c *Client) CreatePillarData(ctx context.Context, request PillarDataRequest) error {
	slog.Info("Pushing stack pillar", "url", c.baseURL, "stackID", request.StackID, "environment", request.Environment)
	if _, err := c.http.PostJSON(ctx, c.baseURL+CreatePillarDataEndpoint, headers, request, nil); err != nil {
		return errors.WithMessage(err, "could not create pillar data")
	}
	return nil
}
