package cmd_test

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salt-ha/salt-ha/cmd"
	"github.com/salt-ha/salt-ha/internal/master"
	"github.com/salt-ha/salt-ha/testutils"
)

// fakeDialer accepts connections to the listed hosts only, whatever the port
type fakeDialer map[string]bool

func (d fakeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	if !d[host] {
		return nil, fmt.Errorf("dial tcp %s: connect: connection refused", address)
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

// setup prepares command for a single execution: fresh viper state, root
// flags, a mocked REST client and a dialer reaching only the given masters.
func setup(t *testing.T, command *cobra.Command, reachable ...string) *cobra.Command {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Create a new resty client and inject it into the command context
	client := resty.New()
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	dialer := fakeDialer{}
	for _, host := range reachable {
		dialer[host] = true
	}

	ctx := context.WithValue(context.Background(), cmd.RestyClientKey, client)
	ctx = context.WithValue(ctx, cmd.DialerKey, master.Dialer(dialer))
	command.SetContext(ctx)

	cmd.SetupRootCmdFlags(command)
	return command
}

func registerMaster(master string, port int, accepted, pending []string) {
	root := fmt.Sprintf("https://%s:%d", master, port)
	httpmock.RegisterResponder("POST", root+"/login", testutils.LoginResponder)
	httpmock.RegisterResponder("POST", root+"/logout", testutils.OkResponder)
	httpmock.RegisterResponder("GET", root+"/keys", testutils.KeysResponder(accepted, pending))
	httpmock.RegisterResponder("POST", root+"/hook/minions/key/accept", testutils.OkResponder)
}
