package cmd_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/salt-ha/salt-ha/cmd"
	"github.com/salt-ha/salt-ha/internal/master"
	"github.com/salt-ha/salt-ha/testutils"
)

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{Use: "register", PersistentPreRunE: cmd.RootCmdPersistentPreRunE, RunE: cmd.RegisterCmdRunE}
}

func TestRegisterCmd(t *testing.T) {
	base := []string{"--master", testutils.Master, "--minion-id", testutils.MinionID, "-z", "0"}

	tt := []struct {
		name     string
		args     []string
		metadata bool
		err      string
		accepted int
	}{
		{name: "no credentials", args: base, err: "username is required"},
		{name: "username only", args: append([]string{"user"}, base...), err: "password is required"},
		{name: "positional credentials", args: append([]string{"user", "pass"}, base...), accepted: 1},
		{name: "flag credentials", args: append([]string{"--username", "user", "--password", "pass"}, base...), accepted: 1},
		{name: "metadata credentials", args: base, metadata: true, accepted: 1},
		{name: "invalid port", args: append([]string{"user", "pass", "-d", "0"}, base...), err: "port must be between 1 and 65535"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			command := setup(t, newRegisterCmd(), testutils.Master)
			registerMaster(testutils.Master, testutils.APIPort, nil, []string{testutils.MinionID})
			if tc.metadata {
				httpmock.RegisterResponder("GET", testutils.MetadataUrl, testutils.MetadataResponder("saltapi", "secret", testutils.APIPort))
			}

			_, err := testutils.Execute(t, command, tc.args...)

			if tc.err != "" {
				require.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.accepted, httpmock.GetCallCountInfo()[testutils.CallKey("POST", testutils.AcceptKeyUrl)])
			require.Equal(t, 1, httpmock.GetCallCountInfo()[testutils.CallKey("POST", testutils.LogoutUrl)])
		})
	}
}

func TestRegisterCmd_MetadataPort(t *testing.T) {
	command := setup(t, newRegisterCmd(), testutils.Master)
	registerMaster(testutils.Master, 8443, []string{testutils.MinionID}, nil)
	httpmock.RegisterResponder("GET", testutils.MetadataUrl, testutils.MetadataResponder("saltapi", "secret", 8443))

	_, err := testutils.Execute(t, command, "--master", testutils.Master, "--minion-id", testutils.MinionID)
	require.NoError(t, err)
	require.Equal(t, 1, httpmock.GetCallCountInfo()["POST https://salt-master-1:8443/login"])
}

func TestRegisterCmd_MinionConfig(t *testing.T) {
	dir := t.TempDir()
	minionConfig := testutils.WriteFile(t, dir, "minion", "master:\n  - "+testutils.Master+"\n  - "+testutils.OtherMaster+"\n  - salt-master-3\n")
	testutils.WriteFile(t, dir, "minion.d/id.conf", "id: "+testutils.MinionID+"\n")

	// salt-master-3 is down
	command := setup(t, newRegisterCmd(), testutils.Master, testutils.OtherMaster)
	registerMaster(testutils.Master, testutils.APIPort, []string{testutils.MinionID}, nil)
	registerMaster(testutils.OtherMaster, testutils.APIPort, nil, []string{testutils.MinionID})

	_, err := testutils.Execute(t, command, "user", "pass", "--minion-config", minionConfig)
	require.NoError(t, err)

	info := httpmock.GetCallCountInfo()
	require.Equal(t, 1, info[testutils.CallKey("GET", testutils.KeysUrl)])
	require.Equal(t, 0, info[testutils.CallKey("POST", testutils.AcceptKeyUrl)])
	require.Equal(t, 1, info[testutils.CallKey("GET", testutils.APIUrl(testutils.OtherMaster)+"/keys")])
	require.Equal(t, 1, info[testutils.CallKey("POST", testutils.APIUrl(testutils.OtherMaster)+"/hook/minions/key/accept")])
}

func TestRegisterCmd_NoReachableMaster(t *testing.T) {
	command := setup(t, newRegisterCmd())

	_, err := testutils.Execute(t, command, "user", "pass", "--master", testutils.Master, "--minion-id", testutils.MinionID)
	require.ErrorIs(t, err, master.ErrNoMasters)
	require.Zero(t, httpmock.GetTotalCallCount())
}

func TestRegisterCmd_LoginFailure(t *testing.T) {
	command := setup(t, newRegisterCmd(), testutils.Master)
	httpmock.RegisterResponder("POST", testutils.LoginUrl, testutils.UnauthorizedResponder)

	_, err := testutils.Execute(t, command, "user", "pass", "--master", testutils.Master, "--minion-id", testutils.MinionID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "401 Unauthorized: No permission")
}

func TestRegisterCmd_RequestID(t *testing.T) {
	command := setup(t, newRegisterCmd(), testutils.Master)
	recorder := &testutils.Recorder{}
	registerMaster(testutils.Master, testutils.APIPort, []string{testutils.MinionID}, nil)
	httpmock.RegisterResponder("POST", testutils.LogoutUrl, recorder.Responder())

	_, err := testutils.Execute(t, command, "user", "pass", "--master", testutils.Master, "--minion-id", testutils.MinionID)
	require.NoError(t, err)
	require.Len(t, recorder.Headers, 1)
	require.NotEmpty(t, recorder.Headers[0].Get(cmd.HeaderRequestID))
}

func TestRegisterCmd_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salt_ha.prom")
	command := setup(t, newRegisterCmd(), testutils.Master)
	registerMaster(testutils.Master, testutils.APIPort, nil, []string{testutils.MinionID})
	httpmock.RegisterResponder("POST", testutils.AcceptKeyUrl, httpmock.NewStringResponder(http.StatusInternalServerError, "reactor failed"))

	_, err := testutils.Execute(t, command, "user", "pass", "--master", testutils.Master, "--minion-id", testutils.MinionID, "--metrics-file", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.Contains(content, `salt_ha_last_run_success{function="register"} 0`), content)
	require.True(t, strings.Contains(content, `salt_ha_steps_total{outcome="error",step="accept_key"} 1`), content)
}
