package configuration

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/form3tech-oss/pact-provider/internal/app/provider"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	ConfigFile string `env:"PACT_CONFIG_FILE" yaml:"-"` // YAML file overriding values from the environment

	Provider   string `env:"PACT_PROVIDER" yaml:"provider"`
	Consumer   string `env:"PACT_CONSUMER" yaml:"consumer"` // Empty verifies every consumer
	PactFolder string `env:"PACT_FOLDER" yaml:"pactFolder"`

	S3Bucket   string `env:"PACT_S3_BUCKET" yaml:"s3Bucket"`
	S3Prefix   string `env:"PACT_S3_PREFIX" yaml:"s3Prefix"`
	S3Region   string `env:"AWS_REGION,default=eu-west-1" yaml:"s3Region"`
	S3Endpoint string `env:"PACT_S3_ENDPOINT" yaml:"s3Endpoint"` // e.g. http://localhost:4566 for LocalStack

	TargetURL   string `env:"PROVIDER_URL,default=http://localhost:8080" yaml:"targetURL"`
	TLSCAFile   string `env:"TLS_CA_FILE" yaml:"tlsCAFile"`
	TLSCertFile string `env:"TLS_CERT_FILE" yaml:"tlsCertFile"`
	TLSKeyFile  string `env:"TLS_KEY_FILE" yaml:"tlsKeyFile"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=30s" yaml:"requestTimeout"`
	ReadinessAttempts uint          `env:"READINESS_ATTEMPTS,default=10" yaml:"readinessAttempts"`
	ReadinessDelay    time.Duration `env:"READINESS_DELAY,default=500ms" yaml:"readinessDelay"`

	StateSetupURL      string `env:"PROVIDER_STATES_SETUP_URL" yaml:"stateSetupURL"`
	MessageProducerURL string `env:"MESSAGE_PRODUCER_URL" yaml:"messageProducerURL"`

	SupportedSpecifications string `env:"SUPPORTED_SPECIFICATIONS,default=~3.0" yaml:"supportedSpecifications"`

	LogLevel  string `env:"LOG_LEVEL,default=info" yaml:"logLevel"`
	LogFormat string `env:"LOG_FORMAT,default=text" yaml:"logFormat"`
	RunID     string `env:"RUN_ID" yaml:"runID"`
}

func NewFromEnv(ctx context.Context) (Config, error) {
	var config Config
	err := envconfig.Process(ctx, &config)
	if err != nil {
		return config, errors.Wrap(err, "process env config")
	}
	return config, nil
}

// Load reads the environment, then applies the file named by PACT_CONFIG_FILE
// on top of it.
func Load(ctx context.Context) (Config, error) {
	config, err := NewFromEnv(ctx)
	if err != nil {
		return config, err
	}
	if config.ConfigFile == "" {
		return config, nil
	}

	data, err := os.ReadFile(config.ConfigFile)
	if err != nil {
		return config, errors.Wrapf(err, "unable to read config file '%s'", config.ConfigFile)
	}
	if err := config.overlay(data); err != nil {
		return config, errors.Wrapf(err, "unable to parse config file '%s'", config.ConfigFile)
	}
	return config, nil
}

func (c *Config) overlay(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	if c.Provider == "" {
		return errors.New("a provider name is required")
	}
	if c.PactFolder == "" && c.S3Bucket == "" {
		return errors.New("a pact folder or an S3 bucket is required")
	}
	if _, err := provider.TargetFromURL(c.TargetURL); err != nil {
		return errors.Wrap(err, "invalid provider url")
	}
	for _, u := range []struct{ name, value string }{
		{"provider states setup url", c.StateSetupURL},
		{"message producer url", c.MessageProducerURL},
		{"S3 endpoint", c.S3Endpoint},
	} {
		if u.value == "" {
			continue
		}
		if _, err := url.ParseRequestURI(u.value); err != nil {
			return errors.Wrapf(err, "invalid %s", u.name)
		}
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("a TLS client certificate requires both a cert and a key file")
	}
	if _, err := semver.NewConstraint(c.SupportedSpecifications); err != nil {
		return errors.Wrapf(err, "invalid supported specifications '%s'", c.SupportedSpecifications)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return errors.Errorf("invalid log format '%s', expected '%s' or '%s'", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}

// SetupLogging configures the standard logger.
func SetupLogging(config Config) error {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)

	switch config.LogFormat {
	case LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
