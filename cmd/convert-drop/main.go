// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the convert-drop CLI.
// Files dropped into a folder or named on the command line are uploaded to a
// conversion service, and each converted artifact is saved to the download
// directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the convert-drop CLI.
var rootCmd = &cobra.Command{
	Use:   "convert-drop",
	Short: "Drop files on a conversion service and keep what comes back",
	Long: `convert-drop uploads files to a conversion service, one independent
request per file, and saves each converted artifact under the name the
service suggests.

Files reach the service two ways: the watch command turns a drop folder into
a drop region, and the upload command sends files named on the command line.
Every finished job is recorded in a local history ledger; the preview command
serves the saved artifacts and a mesh viewer over HTTP.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./convert-drop.yaml or ~/.config/convert-drop/config.yaml)")
	pf.BoolP("verbose", "v", false, "log debug diagnostics to stderr")
	pf.String("endpoint", "", "conversion service URL")
	pf.String("download-dir", "", "directory converted artifacts are saved to (default \"downloads\")")
	pf.Duration("timeout", 0, "per-request timeout (default none)")
	pf.Bool("no-history", false, "do not record jobs in the history ledger")

	bindFlag("convert.endpoint", "endpoint")
	bindFlag("convert.download_dir", "download-dir")
	bindFlag("convert.timeout", "timeout")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("convert-drop")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "convert-drop"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
