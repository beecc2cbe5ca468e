package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/go-errors/errors"
	"gopkg.in/yaml.v3"
)

// DefaultICEServers is used when a config names no ICE servers.
var DefaultICEServers = []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}

// LogConfig controls the logger built by internal/log.
type LogConfig struct {
	Level    string `yaml:"level,omitempty"` // logrus level name, overridden by LOG_LEVEL
	Debug    bool   `yaml:"debug,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// ServerConfig holds runtime configuration for the probe server.
type ServerConfig struct {
	Listen          string    `yaml:"listen"`
	WSPath          string    `yaml:"ws_path"`
	ICEServers      []string  `yaml:"ice_servers"`
	DesiredChannels int       `yaml:"desired_channels"`
	MaxFrameBytes   int       `yaml:"max_frame_bytes"` // 0 disables the limit
	Log             LogConfig `yaml:"log"`
}

// ProbeConfig holds configuration for the probe CLI.
type ProbeConfig struct {
	Server          string        `yaml:"server"`
	ID              string        `yaml:"id"`
	DesiredChannels int           `yaml:"desired_channels"`
	WebRTC          bool          `yaml:"webrtc"`
	Timeout         time.Duration `yaml:"timeout"`
	ICEServers      []string      `yaml:"ice_servers"`
	Log             LogConfig     `yaml:"log"`
}

// HealthPath is served next to the WebSocket endpoint, so ws_path may not
// take it.
const HealthPath = "/healthz"

// LoadServer reads a server config from path. An empty path yields the
// defaults. Fields absent from the file keep their defaults; fields present
// are taken as written, zero values included.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := defaultServerConfig()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProbe reads a probe config from path. An empty path yields the defaults.
func LoadProbe(path string) (*ProbeConfig, error) {
	cfg := defaultProbeConfig()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("probe-%s", randomID())
	}
	return cfg, nil
}

func decodeFile(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapPrefix(err, "read config file", 0)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return errors.WrapPrefix(err, "decode config", 0)
	}
	return nil
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:          ":8080",
		WSPath:          "/ws",
		ICEServers:      append([]string(nil), DefaultICEServers...),
		DesiredChannels: 4,
		MaxFrameBytes:   16 << 20,
	}
}

func defaultProbeConfig() *ProbeConfig {
	return &ProbeConfig{
		Server:          "ws://localhost:8080/ws",
		DesiredChannels: 4,
		Timeout:         10 * time.Second,
		ICEServers:      append([]string(nil), DefaultICEServers...),
	}
}

// Validate checks that server values are usable.
func (c *ServerConfig) Validate() error {
	if c.Listen == "" {
		return errors.New("listen must be set")
	}
	if c.WSPath == "" || c.WSPath[0] != '/' {
		return errors.Errorf("ws_path must start with '/', got %q", c.WSPath)
	}
	if c.WSPath == HealthPath {
		return errors.Errorf("ws_path %q is reserved for the health endpoint", c.WSPath)
	}
	if err := validateChannels(c.DesiredChannels); err != nil {
		return err
	}
	if c.MaxFrameBytes < 0 {
		return errors.Errorf("max_frame_bytes must not be negative (0 disables the limit), got %d", c.MaxFrameBytes)
	}
	return nil
}

// Validate checks that probe values are usable.
func (c *ProbeConfig) Validate() error {
	if c.Server == "" {
		return errors.New("server must be set")
	}
	if err := validateChannels(c.DesiredChannels); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func validateChannels(n int) error {
	if n < 0 || n > 4 {
		return errors.Errorf("desired_channels must be between 0 and 4, got %d", n)
	}
	return nil
}

// Dump renders cfg as YAML.
func Dump(cfg interface{}) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func randomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
