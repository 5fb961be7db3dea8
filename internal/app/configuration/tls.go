package configuration

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLSConfig builds the client TLS settings used to reach the provider. It
// returns nil when neither a CA nor a client certificate is configured.
func TLSConfig(config Config) (*tls.Config, error) {
	if config.TLSCAFile == "" && config.TLSCertFile == "" && config.TLSKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if config.TLSCAFile != "" {
		caCertFile, err := os.ReadFile(config.TLSCAFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading CA certificate")
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCertFile) {
			return nil, errors.Errorf("no certificates found in '%s'", config.TLSCAFile)
		}
		tlsConfig.RootCAs = certPool
	}

	if config.TLSCertFile != "" || config.TLSKeyFile != "" {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, errors.New("cannot run in mTLS mode without TLS cert and key")
		}
		cert, err := tls.LoadX509KeyPair(config.TLSCertFile, config.TLSKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "error loading client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
