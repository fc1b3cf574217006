// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-drop/internal/httputil"
	"github.com/pdiddy/convert-drop/pkg/types"
)

// configureEnv maps CONVERT_DROP_<SECTION>_<KEY> variables onto config keys
// and registers the defaults.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("CONVERT_DROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
}

// setDefaults registers every config key so AutomaticEnv can resolve it
// during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("convert.endpoint", "")
	v.SetDefault("convert.field_name", types.DefaultFieldName)
	v.SetDefault("convert.default_filename", types.DefaultFilename)
	v.SetDefault("convert.download_dir", types.DefaultDownloadDir)
	v.SetDefault("convert.timeout", 0)
	v.SetDefault("convert.user_agent", "")
	v.SetDefault("watch.dir", types.DefaultDropDir)
	v.SetDefault("watch.settle", types.DefaultSettle)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dir", types.DefaultHistoryDir)
	v.SetDefault("preview.addr", types.DefaultPreviewAddr)
}

// loadConfig resolves the full configuration from v (flags, environment,
// config file, defaults) and fills in anything still unset.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg.WithDefaults(version), nil
}

// requireEndpoint checks the one setting with no usable default.
func requireEndpoint(cfg types.Config) error {
	if cfg.Convert.Endpoint == "" {
		return fmt.Errorf("no conversion endpoint: set --endpoint, CONVERT_DROP_CONVERT_ENDPOINT, or convert.endpoint in convert-drop.yaml")
	}
	return httputil.ValidateEndpoint(cfg.Convert.Endpoint)
}

// checkWatchDirs rejects a drop folder that is also the download directory.
// Every saved artifact would land in the watched folder and be dropped again.
func checkWatchDirs(cfg types.Config) error {
	same, err := sameDir(cfg.Watch.Dir, cfg.Convert.DownloadDir)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("drop folder %s is also the download directory: set watch.dir and convert.download_dir to different folders", cfg.Watch.Dir)
	}
	return nil
}

// sameDir reports whether a and b name the same directory. Existing paths
// are compared after resolving symlinks.
func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", b, err)
	}
	if absA == absB {
		return true, nil
	}

	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

// newLogger returns the diagnostic logger. --verbose lowers the level to
// Debug.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
