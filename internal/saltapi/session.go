package saltapi

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/salt-ha/salt-ha/internal/httpclient"
)

// Session is an authenticated salt-api session. Call Logout once done.
type Session struct {
	client *Client
	token  string
}

// Master returns the host name the session was opened against.
func (s *Session) Master() string {
	return s.client.master
}

func (s *Session) headers() map[string]string {
	return map[string]string{
		httpclient.HeaderAccept:    httpclient.ContentTypeJSON,
		httpclient.HeaderAuthToken: s.token,
	}
}

// Logout revokes the session token.
func (s *Session) Logout(ctx context.Context) error {
	slog.Info("Deauthenticating", "master", s.Master())
	if _, err := s.client.http.PostForm(ctx, s.client.url(LogoutEndpoint), s.headers(), nil, nil); err != nil {
		return errors.WithMessage(err, "could not logout")
	}
	return nil
}

// CheckKey reports the key status of a minion.
func (s *Session) CheckKey(ctx context.Context, minion string) (KeyStatus, error) {
	slog.Info("Checking if client key is accepted", "minion", minion, "master", s.Master())

	response, err := s.client.http.Get(ctx, s.client.url(KeysEndpoint), s.headers(), &KeysResponse{})
	if err != nil {
		return 0, errors.WithMessage(err, "could not list keys")
	}

	keys := response.Result().(*KeysResponse)
	if keys == nil {
		return 0, errors.New("error unmarshalling keys")
	}

	return keys.Return.Status(minion), nil
}

// AcceptKey asks the master to accept a pending minion key.
func (s *Session) AcceptKey(ctx context.Context, minion string) error {
	slog.Info("Accepting client key", "minion", minion, "master", s.Master())

	form := map[string]string{"minion": minion}
	if _, err := s.client.http.PostForm(ctx, s.client.url(AcceptKeyEndpoint), s.headers(), form, nil); err != nil {
		return errors.WithMessage(err, "could not accept key")
	}
	return nil
}

// RefreshPillar fires the refresh_pillar reactor for every minion of a stack.
func (s *Session) RefreshPillar(ctx context.Context, stackID string) error {
	slog.Info("Sending refresh pillar signal", "master", s.Master(), "stackID", stackID)

	form := map[string]string{"stack_id": stackID}
	if _, err := s.client.http.PostForm(ctx, s.client.url(RefreshPillarEndpoint), s.headers(), form, nil); err != nil {
		return errors.WithMessage(err, "could not refresh pillar")
	}
	return nil
}

// RunOrchestration triggers an orchestration hook, e.g. RunHeatEndpoint.
func (s *Session) RunOrchestration(ctx context.Context, endpoint string, request OrchestrationRequest) error {
	slog.Info("Running orchestration", "master", s.Master(), "hook", endpoint, "stackID", request.StackID)

	if _, err := s.client.http.PostJSON(ctx, s.client.url(endpoint), s.headers(), request, nil); err != nil {
		return errors.WithMessagef(err, "could not run orchestration %s", endpoint)
	}
	return nil
}
