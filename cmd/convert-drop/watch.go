// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-drop/internal/surface"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert files dropped into a folder",
	Long: `Watch turns a folder into a drop region. Copying or moving files into it
activates the region; once the files stop changing for the settle window they
are dropped, and each one is converted as an independent job. Removing the
files before they settle cancels the drop.

Dropped files are left in place. Watch runs until interrupted, then waits for
in-flight jobs to finish.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("dir", "", "drop folder to watch (default \"drop\")")
	watchCmd.Flags().Duration("settle", 0, "quiet period before pending files are dropped (default 500ms)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("watch.dir", cmd.Flags().Lookup("dir")); err != nil {
		return err
	}
	if err := viper.BindPFlag("watch.settle", cmd.Flags().Lookup("settle")); err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := requireEndpoint(cfg); err != nil {
		return err
	}
	if err := checkWatchDirs(cfg); err != nil {
		return err
	}
	noHistory, _ := cmd.Flags().GetBool("no-history")

	log := newLogger(cmd, cmd.ErrOrStderr())
	p := newPipeline(cfg, !noHistory, log, cmd.OutOrStdout())
	defer p.Close()

	region := surface.New(p.dispatcher, surface.OnStateChange(func(s surface.State) {
		log.Info("drop region", "state", s)
	}))
	w := surface.NewWatcher(cfg.Watch.Dir, cfg.Watch.Settle, region, log)

	log.Info("saving artifacts", "dir", cfg.Convert.DownloadDir)
	if err := w.Run(cmd.Context()); err != nil {
		return err
	}

	p.dispatcher.Wait()
	tally := p.handler.Tally()
	fmt.Fprintf(cmd.ErrOrStderr(), "Stopped: %d converted, %d failed\n", tally.Succeeded, tally.Failed)
	return nil
}
