// Package metadata reads the instance metadata document that carries the
// salt-api credentials when none were given on the command line.
package metadata

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/salt-ha/salt-ha/internal/httpclient"
)

const DefaultURL = "http://169.254.0.1:8080/metadata.yaml"

type Metadata struct {
	SaltAPIUser     string `yaml:"salt_api_user"`
	SaltAPIPassword string `yaml:"salt_api_password"`
	SaltAPIPort     int    `yaml:"salt_api_port"`
}

// Fetch downloads and parses the metadata document.
func Fetch(ctx context.Context, client *httpclient.HttpClient, url string) (*Metadata, error) {
	slog.Info("Fetching metadata", "url", url)

	response, err := client.Get(ctx, url, nil, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "could not fetch metadata")
	}

	var m Metadata
	if err := yaml.Unmarshal(response.Body(), &m); err != nil {
		return nil, errors.WithMessage(err, "could not parse metadata")
	}

	slog.Debug("metadata", "user", m.SaltAPIUser, "port", m.SaltAPIPort)
	return &m, nil
}
