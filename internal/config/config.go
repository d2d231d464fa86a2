// Package config implements the CLI configuration surface of
// spec.md §6: --port, --log-level, --log-path, --connections,
// --dump-path, each overridable via a CUBEDB_* environment variable,
// following the teacher's cobra+viper binding pattern.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the process-wide, immutable-after-startup configuration.
type Config struct {
	Port        string
	LogLevel    int
	LogPath     string
	Connections int
	DumpPath    string
}

const (
	defaultPort        = "1985"
	defaultConnections = 64
)

// BindFlags registers the spec's CLI flags on cmd and binds them through
// viper so CUBEDB_* environment variables can override them, matching
// the teacher's configuration idiom in internal/config.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.String("port", defaultPort, "TCP port to listen on")
	flags.Int("log-level", int(slog.LevelInfo), "log verbosity (slog level)")
	flags.String("log-path", "", "path to write logs to (empty: stderr)")
	flags.Int("connections", defaultConnections, "listen backlog size (validated and logged; not applied to the listener)")
	flags.String("dump-path", "", "directory to load/write INSERT dumps (empty: DUMP disabled)")

	v.SetEnvPrefix("CUBEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
}

// Load reads the bound flags/environment into a Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("port"),
		LogLevel:    v.GetInt("log-level"),
		LogPath:     v.GetString("log-path"),
		Connections: v.GetInt("connections"),
		DumpPath:    v.GetString("dump-path"),
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("config: --port must not be empty")
	}
	if cfg.Connections <= 0 {
		return nil, fmt.Errorf("config: --connections must be positive, got %d", cfg.Connections)
	}
	return cfg, nil
}
