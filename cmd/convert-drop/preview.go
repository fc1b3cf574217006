// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-drop/internal/preview"
)

const shutdownGrace = 5 * time.Second

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve saved artifacts and a mesh viewer",
	Long: `Preview serves the download directory over HTTP. GET /api/artifacts lists
saved artifacts along with any STL meshes they contain, and each mesh links to
a browser viewer.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8091)")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("preview.addr", cmd.Flags().Lookup("addr")); err != nil {
		return err
	}
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	log := newLogger(cmd, cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Preview.Addr,
		Handler:           preview.NewServer(cfg.Convert.DownloadDir, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", cfg.Convert.DownloadDir, cfg.Preview.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("preview server: %w", err)
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutting down preview server: %w", err)
	}
	return nil
}
