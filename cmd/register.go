package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/salt-ha/salt-ha/internal/workflow"
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register [username] [password]",
	Short: "Make sure the key of this minion is accepted on every reachable master",
	Long: `Logs in to the salt-api of every reachable master and accepts the key of
this minion when it is pending. Accepted and unknown keys are left alone.`,
	Args: cobra.MaximumNArgs(2),
	RunE: RegisterCmdRunE,
}

func RegisterCmdRunE(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	rn, err := newRun(cmd, args, "register")
	if err != nil {
		return err
	}
	defer func() { rn.finish(err) }()

	masters, minionID, err := rn.workingMasters(ctx)
	if err != nil {
		return err
	}

	if err := workflow.New(rn.http, rn.config, rn.metrics).Register(ctx, masters, rn.auth, minionID); err != nil {
		return err
	}

	slog.Info("Registration completed", "minion", minionID, "masters", masters)
	return nil
}
