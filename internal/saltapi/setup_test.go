package saltapi_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"

	"github.com/salt-ha/salt-ha/internal/httpclient"
	"github.com/salt-ha/salt-ha/internal/saltapi"
	"github.com/salt-ha/salt-ha/testutils"
)

func setup(t *testing.T) *saltapi.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	client := resty.New()
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return saltapi.New(httpclient.NewWithClient(client), testutils.Master, testutils.APIPort, "")
}

func login(t *testing.T, c *saltapi.Client) *saltapi.Session {
	httpmock.RegisterResponder("POST", testutils.LoginUrl, testutils.LoginResponder)
	s, err := c.Login(t.Context(), "saltapi", "secret")
	if err != nil {
		t.Fatal(err)
	}
	return s
}
