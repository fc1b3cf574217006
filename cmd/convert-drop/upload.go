// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-drop/internal/surface"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Convert the named files",
	Long: `Upload sends each named file to the conversion service as its own
request and saves every converted artifact to the download directory. The
path "-" reads further paths from stdin, one per line.

Jobs run concurrently and finish in any order. A failed file does not affect
the others; the command exits non-zero if any file failed.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more files to convert (or - to read paths from stdin)")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := requireEndpoint(cfg); err != nil {
		return err
	}
	noHistory, _ := cmd.Flags().GetBool("no-history")

	log := newLogger(cmd, cmd.ErrOrStderr())
	p := newPipeline(cfg, !noHistory, log, cmd.OutOrStdout())

	region := surface.New(p.dispatcher, surface.WithPicker(surface.PathPicker{
		Paths: args,
		Stdin: cmd.InOrStdin(),
	}))
	err = region.Click(cmd.Context())
	p.Close()
	if err != nil {
		return err
	}

	tally := p.handler.Tally()
	if tally.HasFailures() {
		return fmt.Errorf("%d of %d file(s) failed conversion", tally.Failed, tally.Total())
	}
	return nil
}
