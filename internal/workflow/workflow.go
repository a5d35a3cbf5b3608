// Package workflow drives the sequences of salt-api and companion calls
// behind the register and orchestrate functions.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/salt-ha/salt-ha/internal/companion"
	"github.com/salt-ha/salt-ha/internal/config"
	"github.com/salt-ha/salt-ha/internal/httpclient"
	"github.com/salt-ha/salt-ha/internal/pillar"
	"github.com/salt-ha/salt-ha/internal/saltapi"
	"github.com/salt-ha/salt-ha/internal/utils"
)

// StepObserver is told about the outcome of every step.
type StepObserver interface {
	ObserveStep(step string, err error)
}

type Workflow struct {
	http      *httpclient.HttpClient
	port      int
	flaskPort int
	eauth     string
	settle    time.Duration
	sleep     func(context.Context, time.Duration) error
	observer  StepObserver
}

func New(client *httpclient.HttpClient, cfg config.Config, observer StepObserver) *Workflow {
	return &Workflow{
		http:      client,
		port:      cfg.Port,
		flaskPort: cfg.FlaskPort,
		eauth:     cfg.EAuth,
		settle:    cfg.SleepTime,
		sleep:     sleep,
		observer:  observer,
	}
}

func (w *Workflow) observe(step string, err error) error {
	if w.observer != nil {
		w.observer.ObserveStep(step, err)
	}
	return err
}

// withSession logs in to master, runs fn and always logs out afterwards.
func (w *Workflow) withSession(ctx context.Context, master string, auth config.AuthConfig, fn func(*saltapi.Session) error) (err error) {
	client := saltapi.New(w.http, master, w.port, w.eauth)

	session, err := client.Login(ctx, auth.Username, auth.Password)
	if w.observe("login", err) != nil {
		return err
	}

	defer func() {
		// The run context may be cancelled already, the token still has to go
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if lErr := w.observe("logout", session.Logout(logoutCtx)); lErr != nil {
			slog.Warn("unable to revoke token", "master", master, "error", lErr)
		}
	}()

	return fn(session)
}

// Register makes sure the minion key is accepted on every master.
// A failing master does not stop the others.
func (w *Workflow) Register(ctx context.Context, masters []string, auth config.AuthConfig, minionID string) error {
	slog.Info("Registering...", "minion", minionID, "masters", masters)

	var errs []error
	for _, master := range masters {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := w.withSession(ctx, master, auth, func(s *saltapi.Session) error {
			return w.registerOn(ctx, s, minionID)
		})
		if err != nil {
			slog.Error("registration failed", "master", master, "error", err)
			errs = append(errs, pkgerrors.WithMessagef(err, "master %s", master))
		}
	}

	return errors.Join(errs...)
}

func (w *Workflow) registerOn(ctx context.Context, s *saltapi.Session, minionID string) error {
	status, err := s.CheckKey(ctx, minionID)
	if w.observe("check_key", err) != nil {
		return err
	}

	switch status {
	case saltapi.ACCEPTED:
		slog.Info("Minion key is accepted", "minion", minionID, "master", s.Master())
	case saltapi.UNACCEPTED:
		if err := w.observe("accept_key", s.AcceptKey(ctx, minionID)); err != nil {
			return err
		}
		slog.Info("Minion key accepted", "minion", minionID, "master", s.Master())
	default:
		slog.Warn("Minion key is not yet registered", "minion", minionID, "master", s.Master(), "status", status.String())
	}

	return nil
}

// Orchestrate runs the orchestration of the given kind on master.
// Pillar push, sys state injection and pillar refresh are best effort,
// the orchestration hook itself decides the outcome.
func (w *Workflow) Orchestrate(ctx context.Context, kind Kind, master string, auth config.AuthConfig, opts config.OrchestrateConfig) error {
	slog.Info("Orchestrating...", "kind", kind.String(), "master", master, "stackID", opts.StackID, "environment", opts.Environment)

	pairs, err := pillar.ParsePairs(opts.Pillar)
	if err != nil {
		return err
	}

	var pillarFile map[string]any
	if opts.PillarFile != "" {
		if pillarFile, err = pillar.LoadFile(opts.PillarFile); err != nil {
			return err
		}
	}

	return w.withSession(ctx, master, auth, func(s *saltapi.Session) error {
		c := companion.New(w.http, master, w.flaskPort)

		if opts.PillarFile != "" {
			err := c.CreatePillarData(ctx, companion.PillarDataRequest{
				StackID:     opts.StackID,
				Environment: opts.Environment,
				Pillar:      pillarFile,
				Pattern:     utils.StringOrNil(opts.Automation),
			})
			if err := w.bestEffort(ctx, "create_pillar_data", err); err != nil {
				return err
			}
		}

		if kind.InjectsSysState() {
			err := c.AddSysState(ctx, companion.SysStateRequest{
				Pattern:       utils.StringOrNil(opts.Automation),
				Orchestration: utils.StringOrNil(opts.Orchestration),
			})
			if err := w.bestEffort(ctx, "add_sys_state", err); err != nil {
				return err
			}
		}

		// the previous reactor (fileserver.update) has to finish first
		if err := w.wait(ctx, "refresh_pillar"); err != nil {
			return err
		}
		if err := w.bestEffort(ctx, "refresh_pillar", s.RefreshPillar(ctx, opts.StackID)); err != nil {
			return err
		}

		request := saltapi.OrchestrationRequest{
			Environment:   opts.Environment,
			Automation:    utils.StringOrNil(opts.Automation),
			Orchestration: utils.StringOrNil(opts.Orchestration),
			Pillar:        pillar.Value(pairs),
			StackID:       opts.StackID,
		}
		if kind.SendsWaitCondition() {
			waitToken := opts.WaitToken
			if waitToken == "" {
				waitToken = pillar.None
			}
			request.WaitURL = &opts.WaitURL
			request.WaitToken = &waitToken
		}

		return w.observe(kind.String(), s.RunOrchestration(ctx, kind.Endpoint(), request))
	})
}

// bestEffort logs a failed step and carries on. A successful step is
// followed by a settle period so the reactors it fired can finish.
// Only a cancelled context stops the sequence.
func (w *Workflow) bestEffort(ctx context.Context, step string, err error) error {
	if w.observe(step, err) != nil {
		slog.Error("step failed, continuing", "step", step, "error", err)
		return ctx.Err()
	}
	return w.wait(ctx, step)
}

// wait gives the asynchronous reactors on the master time to settle.
// There is no acknowledgement to wait for, so this is a fixed delay.
func (w *Workflow) wait(ctx context.Context, step string) error {
	if w.settle <= 0 {
		return ctx.Err()
	}

	slog.Info("Waiting for reactors to settle", "step", step, "duration", w.settle)
	return w.sleep(ctx, w.settle)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
