package cmd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salt-ha/salt-ha/internal/config"
)

// LoadConfigFromCLI loads the Config from the CLI flags, the config file and the environment
func LoadConfigFromCLI() config.Config {
	return config.Config{
		Port:         viper.GetInt("port"),
		FlaskPort:    viper.GetInt("flask-port"),
		SleepTime:    time.Duration(viper.GetFloat64("sleep-time") * float64(time.Second)),
		Insecure:     viper.GetBool("insecure"),
		Timeout:      viper.GetDuration("timeout"),
		ProbeTimeout: viper.GetDuration("probe-timeout"),
		RetryCount:   viper.GetInt("retry-count"),
		EAuth:        viper.GetString("eauth"),
		MinionConfig: viper.GetString("minion-config"),
		Masters:      splitList(viper.GetStringSlice("master")),
		MinionID:     viper.GetString("minion-id"),
		MetadataURL:  viper.GetString("metadata-url"),
		MetricsFile:  viper.GetString("metrics-file"),
	}
}

// splitList splits every value on commas. Lists coming from the environment
// are only split on whitespace by viper.
func splitList(values []string) []string {
	var result []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}

// LoadAuthConfigFromCLI loads the AuthConfig. The positional
// `username` and `password` arguments win over the flags.
func LoadAuthConfigFromCLI(args []string) config.AuthConfig {
	c := config.AuthConfig{
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
	}

	if len(args) > 0 && args[0] != "" {
		c.Username = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		c.Password = args[1]
	}

	return c
}

var orchestrateFlags = []string{
	"environment", "automation", "orchestration", "pillar", "pillar-file", "wait-url", "token", "stack-id",
}

// LoadOrchestrateConfigFromCLI loads the OrchestrateConfig from the flags of command.
//
// Both orchestrate commands define the same flags, so they are bound to
// viper when the command runs rather than when it is set up.
func LoadOrchestrateConfigFromCLI(command *cobra.Command) config.OrchestrateConfig {
	for _, name := range orchestrateFlags {
		if err := viper.BindPFlag(name, command.Flags().Lookup(name)); err != nil {
			slog.Error(ErrorBindingFlag, "flag", name, "error", err)
		}
	}

	return config.OrchestrateConfig{
		Environment:   viper.GetString("environment"),
		Automation:    viper.GetString("automation"),
		Orchestration: viper.GetString("orchestration"),
		Pillar:        viper.GetStringSlice("pillar"),
		PillarFile:    viper.GetString("pillar-file"),
		WaitURL:       viper.GetString("wait-url"),
		WaitToken:     viper.GetString("token"),
		StackID:       viper.GetString("stack-id"),
	}
}
