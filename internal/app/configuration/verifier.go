package configuration

import (
	"context"
	"net/http"

	"github.com/Masterminds/semver/v3"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/form3tech-oss/pact-provider/internal/app/provider"
	"github.com/form3tech-oss/pact-provider/internal/app/sources"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewSource combines the pact folder and the S3 bucket, whichever are configured.
func NewSource(ctx context.Context, config Config, logger log.FieldLogger) (provider.Source, error) {
	constraints, err := semver.NewConstraint(config.SupportedSpecifications)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid supported specifications '%s'", config.SupportedSpecifications)
	}
	opts := []sources.Option{
		sources.WithLogger(logger),
		sources.WithReader(pact.NewReader(pact.WithLogger(logger), pact.WithSupportedSpecifications(constraints))),
	}

	var multi sources.Multi
	if config.PactFolder != "" {
		multi = append(multi, sources.NewLocalFiles(config.PactFolder, opts...))
	}
	if config.S3Bucket != "" {
		bucket, err := sources.NewS3Bucket(ctx, sources.S3Config{
			Bucket:   config.S3Bucket,
			Prefix:   config.S3Prefix,
			Region:   config.S3Region,
			Endpoint: config.S3Endpoint,
		}, opts...)
		if err != nil {
			return nil, err
		}
		multi = append(multi, bucket)
	}
	if len(multi) == 0 {
		return nil, errors.New("a pact folder or an S3 bucket is required")
	}
	return multi, nil
}

// NewVerifier wires the HTTP client, the remote provider-state and message
// collaborators and the pact sources described by the configuration.
func NewVerifier(ctx context.Context, config Config, logger log.FieldLogger) (*provider.Verifier, *provider.HTTPClient, error) {
	target, err := provider.TargetFromURL(config.TargetURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid provider url")
	}

	tlsConfig, err := TLSConfig(config)
	if err != nil {
		return nil, nil, err
	}

	clientOpts := []provider.HTTPClientOption{
		provider.WithTimeout(config.RequestTimeout),
		provider.WithReadiness(config.ReadinessAttempts, config.ReadinessDelay),
		provider.WithClientLogger(logger),
	}
	callbacks := &http.Client{Timeout: config.RequestTimeout}
	if tlsConfig != nil {
		clientOpts = append(clientOpts, provider.WithTLSConfig(tlsConfig))
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		callbacks.Transport = transport
	}
	client := provider.NewHTTPClient(clientOpts...)

	source, err := NewSource(ctx, config, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []provider.VerifierOption{
		provider.WithClient(client),
		provider.WithTarget(target),
		provider.WithLogger(logger),
	}
	if config.StateSetupURL != "" {
		opts = append(opts, provider.WithStateHandler(provider.NewStateChangeClient(config.StateSetupURL, callbacks, logger)))
	}
	if config.MessageProducerURL != "" {
		opts = append(opts, provider.WithMessageProducer(provider.NewHTTPMessageProducer(config.MessageProducerURL, callbacks, logger)))
	}
	if config.RunID != "" {
		opts = append(opts, provider.WithRunID(config.RunID))
	}

	return provider.NewVerifier(source, config.Provider, opts...), client, nil
}
