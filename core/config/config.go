// Package config implements the user-defined gateway configuration: routes
// keyed by host with wildcard matching, sniffer tuning, and per-route rate
// limits.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/appspotengine/rsnova/core/limiter"
	"github.com/appspotengine/rsnova/core/metrics"
	"github.com/appspotengine/rsnova/core/stream"
	"gopkg.in/yaml.v3"
)

type LimiterConfig struct {
	Rate     int   `yaml:"rate"`
	Burst    int   `yaml:"burst"`
	Cooldown int64 `yaml:"cooldown"`
}

type RouteConfig struct {
	Target    string         `yaml:"target"`
	Terminate bool           `yaml:"terminate,omitempty"`
	Limiter   *LimiterConfig `yaml:"rate_limit,omitempty"`
}

// SniffConfig tunes the protocol sniffer applied to accepted connections.
type SniffConfig struct {
	PeekBytes int   `yaml:"peek_bytes,omitempty"`
	TimeoutMS int64 `yaml:"timeout_ms,omitempty"`
}

// File represents the YAML structure.
type File struct {
	Routes map[string]RouteConfig `yaml:"routes"`
	Sniff  SniffConfig            `yaml:"sniff,omitempty"`
}

// Route is a loaded route: where traffic for a host goes and how.
type Route struct {
	Host      string
	Target    stream.HostPort
	Terminate bool
	Limiter   *limiter.Limiter
	Metrics   *metrics.Metrics
}

// Config holds the loaded configuration.
type Config struct {
	Routes *Trie[*Route]
	Sniff  SniffConfig
}

// New creates an empty configuration.
func New() *Config {
	return &Config{
		Routes: NewTrie[*Route](),
	}
}

// Load loads configuration from a YAML file.
func (c *Config) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.LoadBytes(data)
}

// LoadBytes loads configuration from YAML bytes.
func (c *Config) LoadBytes(data []byte) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return c.loadRoutes(file)
}

func (c *Config) loadRoutes(file File) error {
	for host, rc := range file.Routes {
		if rc.Target == "" {
			return fmt.Errorf("empty target for host %q", host)
		}

		target, err := stream.ParseHostPort(rc.Target)
		if err != nil {
			return fmt.Errorf("host %q: %w", host, err)
		}

		route := &Route{
			Host:      host,
			Target:    target,
			Terminate: rc.Terminate,
			Metrics:   metrics.New(),
		}

		if rc.Limiter != nil {
			route.Limiter = limiter.New(
				limiter.WithRPS(rc.Limiter.Rate),
				limiter.WithBurst(rc.Limiter.Burst),
				limiter.WithCooldown(time.Duration(rc.Limiter.Cooldown)*time.Millisecond),
			)
		}

		c.Routes.Set(host, route)
	}

	c.Sniff = file.Sniff
	return nil
}

// GetRoute finds the route for the given host, honoring wildcards.
func (c *Config) GetRoute(host string) *Route {
	if route := c.Routes.Get(host); route != nil {
		return *route
	}
	return nil
}

// AddRoute registers a single host to target mapping.
func (c *Config) AddRoute(host, target string) error {
	hp, err := stream.ParseHostPort(target)
	if err != nil {
		return err
	}
	c.Routes.Set(host, &Route{
		Host:    host,
		Target:  hp,
		Metrics: metrics.New(),
	})
	return nil
}

// RemoveRoute removes the route for the given host.
func (c *Config) RemoveRoute(host string) bool {
	return c.Routes.Delete(host)
}

// Hosts returns every configured host, wildcards included.
func (c *Config) Hosts() []string {
	return c.Routes.Keys()
}
