package cmd_test

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/salt-ha/salt-ha/cmd"
	"github.com/salt-ha/salt-ha/testutils"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{Use: "salt-ha", Args: cobra.ArbitraryArgs, PersistentPreRunE: cmd.RootCmdPersistentPreRunE, RunE: cmd.RootCmdRunE}
}

func TestRootCmd_UnknownFunction(t *testing.T) {
	command := setup(t, newRootCmd())

	out, err := testutils.Execute(t, command, "orchestrate_openstack", "user", "pass")

	var usageErr *cmd.UsageError
	require.True(t, errors.As(err, &usageErr))
	require.Equal(t, "orchestrate_openstack", usageErr.Function)
	require.Contains(t, out, "Try again...")
	require.Contains(t, out, "Usage:")
}

func TestRootCmd_NoFunction(t *testing.T) {
	command := setup(t, newRootCmd())

	out, err := testutils.Execute(t, command)
	require.NoError(t, err)
	require.Contains(t, out, "Usage:")
}

func TestRootCmd_LogFlags(t *testing.T) {
	tt := []struct {
		name string
		args []string
		err  string
	}{
		{name: "debug", args: []string{"-l", "debug"}},
		{name: "json", args: []string{"--log-format", "json"}},
		{name: "text", args: []string{"--log-format", "text"}},
		{name: "invalid level", args: []string{"-l", "trace"}, err: "invalid log level: trace. Valid log levels are: debug|error|info|warn"},
		{name: "invalid format", args: []string{"--log-format", "xml"}, err: "invalid log format: xml. Valid log formats are: auto|json|text"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			command := setup(t, newRootCmd())

			_, err := testutils.Execute(t, command, tc.args...)

			if tc.err != "" {
				require.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
		})
	}
}
