package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        v.GetString("data_dir"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		MetricsFile:    v.GetString("metrics_file"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(projectRoot, DataDirName)
	}

	if from := v.GetString("from"); from != "" {
		caller, err := domain.ParseAddress(from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from: %w", err)
		}
		cfg.Caller = caller
	}
	if at := v.GetString("at"); at != "" {
		t, err := ParseTime(at)
		if err != nil {
			return nil, fmt.Errorf("invalid --at: %w", err)
		}
		cfg.At = &t
	}

	pf, found, err := loadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}
	cfg.ConfigSource = "defaults"
	if found {
		cfg.ConfigSource = ProjectFileName
	}
	if err := resolveProject(cfg, pf); err != nil {
		return nil, err
	}
	if url := v.GetString("redis_url"); url != "" {
		cfg.Events.RedisURL = url
	}

	return cfg, nil
}

// ParseTime accepts RFC 3339 timestamps and unix seconds.
func ParseTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 time or unix seconds, got %q", s)
	}
	return t.UTC(), nil
}

// FindProjectRoot walks up from the current directory to find dvote.toml.
// Without one, the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("DVOTE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "30s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
