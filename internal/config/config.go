// Package config loads the player configuration from a YAML file and
// command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/junsooki/remoteplay/internal/media"
	"github.com/junsooki/remoteplay/internal/poller"
)

// Config holds all runtime configuration.
type Config struct {
	Signaling SignalingConfig `yaml:"signaling"`
	Videos    []string        `yaml:"videos"`
	// PollInterval is the delay between two position requests.
	PollInterval time.Duration `yaml:"poll_interval"`
	// SeekThrottle is the seek rate limit in milliseconds, as typed by the
	// operator. It is parsed leniently by the session.
	SeekThrottle string    `yaml:"seek_throttle_ms"`
	ICEServers   []string  `yaml:"ice_servers"`
	Log          LogConfig `yaml:"log"`
}

// SignalingConfig locates the media server's signaling endpoint.
type SignalingConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Path   string `yaml:"path"`
	Secure bool   `yaml:"secure"`
	// InsecureSkipVerify disables TLS certificate verification. Only for
	// servers with self-signed certificates.
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	CloseTimeout       time.Duration `yaml:"close_timeout"`
	QueueSize          int           `yaml:"queue_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const videoBase = "http://kurento-media-server-poc-demo.s3-website-us-east-1.amazonaws.com/"

// Default returns the configuration of the reference deployment.
func Default() Config {
	return Config{
		Signaling: SignalingConfig{
			Host:             "localhost",
			Port:             8889,
			Path:             "/player",
			Secure:           true,
			PingInterval:     25 * time.Second,
			WriteTimeout:     10 * time.Second,
			HandshakeTimeout: 10 * time.Second,
			CloseTimeout:     time.Second,
			QueueSize:        64,
		},
		Videos: []string{
			videoBase + "6871279892111720939.mp4",
			videoBase + "6871279892111720939_lq.mp4",
			videoBase + "TeslaCam/2020-06-14_13-32-23-back.mp4",
			videoBase + "TeslaCam/2020-06-14_13-32-23-front.mp4",
			videoBase + "TeslaCam/2020-06-14_13-32-23-left_repeater.mp4",
			videoBase + "TeslaCam/2020-06-14_13-32-23-right_repeater.mp4",
			videoBase + "dings_qa_env_portal/6871209325775687372.mp4",
		},
		PollInterval: poller.DefaultInterval,
		SeekThrottle: "0",
		ICEServers:   append([]string(nil), media.DefaultICEServers...),
		Log:          LogConfig{Level: "info", Format: "console"},
	}
}

// URL returns the WebSocket URL of the signaling endpoint.
func (s SignalingConfig) URL() string {
	scheme := "ws"
	if s.Secure {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   s.Path,
	}
	return u.String()
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Signaling.Host == "" {
		errs = append(errs, errors.New("signaling.host is required"))
	}
	if c.Signaling.Port <= 0 || c.Signaling.Port > 65535 {
		errs = append(errs, fmt.Errorf("signaling.port %d out of range", c.Signaling.Port))
	}
	if len(c.Videos) == 0 {
		errs = append(errs, errors.New("at least one video is required"))
	}
	for i, v := range c.Videos {
		if _, err := url.ParseRequestURI(v); err != nil {
			errs = append(errs, fmt.Errorf("videos[%d]: %w", i, err))
		}
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.Signaling.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("signaling.queue_size must not be negative, got %d", c.Signaling.QueueSize))
	}
	return errors.Join(errs...)
}

// Parse builds the configuration from command-line arguments: defaults, then
// the --config file if given, then any explicitly set flags.
func Parse(name string, args []string) (Config, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "YAML configuration file")
	host := fs.String("host", "", "signaling server host")
	port := fs.Int("port", 0, "signaling server port")
	path := fs.String("path", "", "signaling endpoint path")
	plain := fs.Bool("plain", false, "use ws:// instead of wss://")
	insecure := fs.Bool("insecure-skip-verify", false, "do not verify the server's TLS certificate")
	videos := fs.StringSlice("video", nil, "video URL to play (repeatable, replaces the default list)")
	pollInterval := fs.Duration("poll-interval", 0, "delay between position requests")
	throttle := fs.String("seek-throttle", "", "seek rate limit in milliseconds")
	logLevel := fs.String("log-level", "", "log level (trace, debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (console or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if fs.Changed("host") {
		cfg.Signaling.Host = *host
	}
	if fs.Changed("port") {
		cfg.Signaling.Port = *port
	}
	if fs.Changed("path") {
		cfg.Signaling.Path = *path
	}
	if fs.Changed("plain") {
		cfg.Signaling.Secure = !*plain
	}
	if fs.Changed("insecure-skip-verify") {
		cfg.Signaling.InsecureSkipVerify = *insecure
	}
	if fs.Changed("video") {
		cfg.Videos = *videos
	}
	if fs.Changed("poll-interval") {
		cfg.PollInterval = *pollInterval
	}
	if fs.Changed("seek-throttle") {
		cfg.SeekThrottle = *throttle
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
