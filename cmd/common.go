package cmd

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/salt-ha/salt-ha/internal/config"
	"github.com/salt-ha/salt-ha/internal/httpclient"
	"github.com/salt-ha/salt-ha/internal/master"
	"github.com/salt-ha/salt-ha/internal/metadata"
	"github.com/salt-ha/salt-ha/internal/metrics"
	"github.com/salt-ha/salt-ha/internal/minion"
)

const (
	ErrorBindingFlag = "unable to bind flag"

	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 30 * time.Second
)

type ContextKey string

const (
	RestyClientKey ContextKey = "restyClient"
	DialerKey      ContextKey = "dialer"
	RunIDKey       ContextKey = "runID"
)

// CreateRestClient creates a new resty client from the config.
// A client stored in the context under RestyClientKey is used instead, if any.
func CreateRestClient(ctx context.Context, cfg config.Config) *resty.Client {
	if r, ok := ctx.Value(RestyClientKey).(*resty.Client); ok && r != nil {
		return r
	}

	slog.Info("Creating REST client...")
	// Retries only happen on network errors, with a 5 seconds wait time between retries and a maximum wait time of 60 seconds.
	r := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(5 * time.Second).SetRetryMaxWaitTime(60 * time.Second)

	if cfg.Insecure {
		// The masters serve salt-api with self-signed certificates
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402
	}

	return r
}

func dialerFromContext(ctx context.Context) master.Dialer {
	if d, ok := ctx.Value(DialerKey).(master.Dialer); ok && d != nil {
		return d
	}
	return &net.Dialer{}
}

// run holds what every function needs once the command line is parsed
type run struct {
	function string
	config   config.Config
	auth     config.AuthConfig
	http     *httpclient.HttpClient
	metrics  *metrics.Metrics
}

// newRun loads and validates the shared configuration, prepares the REST
// client and resolves the credentials.
func newRun(cmd *cobra.Command, args []string, function string) (*run, error) {
	ctx := cmd.Context()

	cfg := LoadConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("args", "config", cfg)

	m := metrics.New()
	r := CreateRestClient(ctx, cfg)
	m.Instrument(r)
	if runID, ok := ctx.Value(RunIDKey).(uuid.UUID); ok {
		r.SetHeader(HeaderRequestID, runID.String())
	}

	rn := &run{
		function: function,
		config:   cfg,
		auth:     LoadAuthConfigFromCLI(args),
		http:     httpclient.NewWithClient(r),
		metrics:  m,
	}

	if rn.auth.Missing() {
		rn.fillFromMetadata(ctx)
	}

	if err := rn.auth.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("args", "auth", rn.auth)

	return rn, nil
}

// fillFromMetadata completes the credentials and the port from the metadata document
func (rn *run) fillFromMetadata(ctx context.Context) {
	if rn.config.MetadataURL == "" {
		return
	}

	md, err := metadata.Fetch(ctx, rn.http, rn.config.MetadataURL)
	if err != nil {
		slog.Warn("unable to read credentials from metadata", "error", err)
		return
	}

	if rn.auth.Username == "" {
		rn.auth.Username = md.SaltAPIUser
	}
	if rn.auth.Password == "" {
		rn.auth.Password = md.SaltAPIPassword
	}
	if md.SaltAPIPort > 0 && md.SaltAPIPort <= 65535 {
		rn.config.Port = md.SaltAPIPort
	}
}

// resolveMinion returns the candidate masters and the minion id, reading the
// minion configuration only for what was not given on the command line.
func (rn *run) resolveMinion() ([]string, string, error) {
	masters, id := rn.config.Masters, rn.config.MinionID
	if len(masters) > 0 && id != "" {
		return masters, id, nil
	}

	mc, err := minion.Load(rn.config.MinionConfig)
	if err != nil {
		return nil, "", errors.WithMessage(err, "could not load minion config")
	}

	if len(masters) == 0 {
		masters = mc.Masters
	}
	if id == "" {
		id = mc.ID
	}

	return masters, id, nil
}

// workingMasters returns the reachable masters, or master.ErrNoMasters
func (rn *run) workingMasters(ctx context.Context) ([]string, string, error) {
	candidates, id, err := rn.resolveMinion()
	if err != nil {
		return nil, "", err
	}

	working := master.Working(ctx, dialerFromContext(ctx), candidates, rn.config.Port, rn.config.ProbeTimeout)
	if len(working) == 0 {
		return nil, id, errors.WithMessagef(master.ErrNoMasters, "tried %v", candidates)
	}

	return working, id, nil
}

// finish records the outcome of the run and writes the metrics textfile, if requested
func (rn *run) finish(err error) {
	rn.metrics.Finish(rn.function, err)

	if rn.config.MetricsFile == "" {
		return
	}
	if wErr := rn.metrics.WriteTextfile(rn.config.MetricsFile); wErr != nil {
		slog.Warn("unable to write metrics", "path", rn.config.MetricsFile, "error", wErr)
	}
}
