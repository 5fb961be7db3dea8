package provider

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultProtocol = "http"
	defaultHost     = "localhost"
	defaultPort     = 8080
	defaultPath     = "/"
)

// Target locates the provider. Every part is resolved when a request is sent,
// so a test can bind a port that is only known once its server started.
type Target struct {
	Protocol func() string
	Host     func() string
	Port     func() int
	Path     func() string
}

// NewTarget fills empty values with http://localhost:8080/.
func NewTarget(protocol, host string, port int, path string) Target {
	if protocol == "" {
		protocol = defaultProtocol
	}
	if host == "" {
		host = defaultHost
	}
	if port == 0 {
		port = defaultPort
	}
	if path == "" {
		path = defaultPath
	}
	return Target{
		Protocol: func() string { return protocol },
		Host:     func() string { return host },
		Port:     func() int { return port },
		Path:     func() string { return path },
	}
}

func DefaultTarget() Target {
	return NewTarget("", "", 0, "")
}

func TargetFromURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, errors.Wrapf(err, "invalid target url %s", raw)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Target{}, errors.Errorf("invalid target url %s, scheme and host are required", raw)
	}
	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Target{}, errors.Wrapf(err, "invalid target port %s", p)
		}
	} else if u.Scheme == "https" {
		port = 443
	} else {
		port = 80
	}
	return NewTarget(u.Scheme, u.Hostname(), port, u.Path), nil
}

// WithPort returns a copy of the target resolving its port from fn.
func (t Target) WithPort(fn func() int) Target {
	t.Port = fn
	return t
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host(), strconv.Itoa(t.Port()))
}

// URL joins the base path of the target and the given request path.
func (t Target) URL(path string) *url.URL {
	return &url.URL{
		Scheme: t.Protocol(),
		Host:   t.Address(),
		Path:   joinPath(t.Path(), path),
	}
}

func (t Target) String() string {
	return t.URL("").String()
}

func joinPath(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
