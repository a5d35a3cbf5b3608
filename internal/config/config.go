package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/salt-ha/salt-ha/internal/pillar"
)

// Config represents the configuration shared by every function
type Config struct {
	Port         int           // salt-api port
	FlaskPort    int           // companion application port
	SleepTime    time.Duration // time given to server-side reactors between steps
	Insecure     bool          // skip TLS verification of salt-api
	Timeout      time.Duration // per-request timeout
	ProbeTimeout time.Duration // TCP probe timeout
	RetryCount   int           // retries on network errors
	EAuth        string        // salt-api external auth backend
	MinionConfig string        // path of the minion configuration
	Masters      []string      // overrides the masters of the minion configuration
	MinionID     string        // overrides the id of the minion configuration
	MetadataURL  string        // fallback credentials source
	MetricsFile  string        // Prometheus textfile output, disabled when empty
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Port),
		slog.Int("flaskPort", c.FlaskPort),
		slog.Duration("sleepTime", c.SleepTime),
		slog.Bool("insecure", c.Insecure),
		slog.String("minionConfig", c.MinionConfig),
		slog.Any("masters", c.Masters),
		slog.String("minionID", c.MinionID),
		slog.String("metadataURL", c.MetadataURL),
	)
}

// Validate the Config making sure all required fields are present and valid
func (c Config) Validate() error {
	if err := validatePort("port", c.Port); err != nil {
		return err
	}

	if err := validatePort("flask port", c.FlaskPort); err != nil {
		return err
	}

	if c.SleepTime < 0 {
		return fmt.Errorf("sleep time must be >= 0")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout > 0 is required")
	}

	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be >= 0")
	}

	if len(c.Masters) == 0 && c.MinionConfig == "" {
		return fmt.Errorf("minion config or master is required")
	}

	if c.MetadataURL != "" {
		if _, err := url.ParseRequestURI(c.MetadataURL); err != nil {
			return fmt.Errorf("invalid metadata URL: %v", err)
		}
	}

	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return nil
}

type AuthConfig struct {
	Username string // The username to authenticate with
	Password string // The password to authenticate with
}

// LogValue omits the password
func (c AuthConfig) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// Missing reports whether the metadata fallback is needed
func (c AuthConfig) Missing() bool {
	return c.Username == "" || c.Password == ""
}

func (c AuthConfig) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}

	if c.Password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

type OrchestrateConfig struct {
	Environment   string   // The salt environment
	Automation    string   // The pattern to run
	Orchestration string   // The pattern orchestration to run
	Pillar        []string // key=value pillar pairs
	PillarFile    string   // YAML pillar file pushed through the companion service
	WaitURL       string   // Heat WaitCondition URL
	WaitToken     string   // Heat WaitCondition token
	StackID       string   // The stack the orchestration runs against
}

// Validate checks the options. waitURLRequired is set for Heat stacks.
func (c OrchestrateConfig) Validate(waitURLRequired bool) error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}

	if c.StackID == "" {
		return fmt.Errorf("stack ID is required")
	}

	if _, err := pillar.ParsePairs(c.Pillar); err != nil {
		return err
	}

	if waitURLRequired {
		if c.WaitURL == "" {
			return fmt.Errorf("wait URL is required")
		}
		if _, err := url.ParseRequestURI(c.WaitURL); err != nil {
			return fmt.Errorf("invalid wait URL: %v", err)
		}
	}

	return nil
}
