// Package saltapi talks to the rest_cherrypy netapi of a Salt master.
package saltapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salt-ha/salt-ha/internal/httpclient"
)

const DefaultEAuth = "pam"

// Client is bound to a single master.
type Client struct {
	http    *httpclient.HttpClient
	master  string
	baseURL string
	eauth   string
}

// New creates a Client for https://master:port.
func New(client *httpclient.HttpClient, master string, port int, eauth string) *Client {
	if eauth == "" {
		eauth = DefaultEAuth
	}
	return &Client{
		http:    client,
		master:  master,
		baseURL: fmt.Sprintf("https://%s", net.JoinHostPort(master, strconv.Itoa(port))),
		eauth:   eauth,
	}
}

// Master returns the host name the client talks to.
func (c *Client) Master() string {
	return c.master
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + endpoint
}

// Login authenticates against the master and returns a Session holding the token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	slog.Info("Authenticating...", "master", c.master, "username", username, "eauth", c.eauth)

	headers := map[string]string{httpclient.HeaderAccept: httpclient.ContentTypeJSON}
	form := map[string]string{
		"username": username,
		"password": password,
		"eauth":    c.eauth,
	}

	response, err := c.http.PostForm(ctx, c.url(LoginEndpoint), headers, form, &LoginResponse{})
	if err != nil {
		return nil, errors.WithMessage(err, "could not login")
	}

	login := response.Result().(*LoginResponse)
	if login == nil || len(login.Return) == 0 {
		return nil, errors.New("no token returned")
	}

	token := login.Return[0]
	if token.Token == "" {
		return nil, errors.New("empty token returned")
	}

	slog.Debug("token acquired", "master", c.master, "user", token.User, "expire", token.Expire)
	return &Session{client: c, token: token.Token}, nil
}
