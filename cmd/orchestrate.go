package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/salt-ha/salt-ha/internal/master"
	"github.com/salt-ha/salt-ha/internal/pillar"
	"github.com/salt-ha/salt-ha/internal/workflow"
)

// orchestrateHeatCmd represents the orchestrate-heat command
var orchestrateHeatCmd = &cobra.Command{
	Use:     "orchestrate-heat [username] [password]",
	Aliases: []string{workflow.HEAT.String()},
	Short:   "Run a pattern orchestration for an OpenStack Heat stack",
	Long: `Pushes the stack pillar, injects the pattern sys state, refreshes the
pillar and fires the Heat orchestration on one reachable master. The master
signals the Heat WaitCondition given by --wait-url when the orchestration ends.`,
	Args: cobra.MaximumNArgs(2),
	RunE: OrchestrateHeatCmdRunE,
}

// orchestrateVRACmd represents the orchestrate-vra command
var orchestrateVRACmd = &cobra.Command{
	Use:     "orchestrate-vra [username] [password]",
	Aliases: []string{workflow.VRA.String()},
	Short:   "Run a pattern orchestration for a vRealize Automation deployment",
	Args:    cobra.MaximumNArgs(2),
	RunE:    OrchestrateVRACmdRunE,
}

func init() {
	SetupOrchestrateCmdFlags(orchestrateHeatCmd)
	SetupOrchestrateCmdFlags(orchestrateVRACmd)
}

func SetupOrchestrateCmdFlags(command *cobra.Command) {
	flags := command.Flags()

	flags.StringP("environment", "e", "base", "The salt environment")
	flags.StringP("automation", "a", "", "The pattern to run")
	flags.StringP("orchestration", "o", "", "The pattern orchestration to run")
	flags.StringArrayP("pillar", "p", nil, "Pillar data as key=value (repeatable)")
	flags.StringP("pillar-file", "f", "", "YAML pillar file pushed through the companion application")
	flags.StringP("wait-url", "w", "", "The Heat WaitCondition URL")
	flags.StringP("token", "t", pillar.None, "The Heat WaitCondition token")
	flags.StringP("stack-id", "s", "", "The stack ID")
}

func OrchestrateHeatCmdRunE(cmd *cobra.Command, args []string) error {
	return orchestrate(cmd, args, workflow.HEAT)
}

func OrchestrateVRACmdRunE(cmd *cobra.Command, args []string) error {
	return orchestrate(cmd, args, workflow.VRA)
}

func orchestrate(cmd *cobra.Command, args []string, kind workflow.Kind) (err error) {
	ctx := cmd.Context()

	opts := LoadOrchestrateConfigFromCLI(cmd)
	if err := opts.Validate(kind.SendsWaitCondition()); err != nil {
		return err
	}

	rn, err := newRun(cmd, args, kind.String())
	if err != nil {
		return err
	}
	defer func() { rn.finish(err) }()

	masters, _, err := rn.workingMasters(ctx)
	if err != nil {
		return err
	}

	target, err := master.Pick(masters)
	if err != nil {
		return err
	}

	if err := workflow.New(rn.http, rn.config, rn.metrics).Orchestrate(ctx, kind, target, rn.auth, opts); err != nil {
		return err
	}

	slog.Info("Orchestration triggered", "kind", kind.String(), "master", target, "stackID", opts.StackID)
	return nil
}
