package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mgpai22/hiyori/internal/history"
	"github.com/mgpai22/hiyori/internal/playback"
	"github.com/mgpai22/hiyori/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve playback sessions over HTTP and websockets",
	Long: `Start the sync server. Players register as targets, upload subtitles
as base64, and stream their playback clock over a websocket; the server
answers with the active cue each time it changes.

Examples:
  hiyori serve
  hiyori serve --listen 0.0.0.0:8787 --target living-room`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("listen", "", "Listen address (default from config, 127.0.0.1:8787)")
	serveCmd.Flags().
		StringSlice("target", nil, "Target id to register at startup (repeatable)")
	serveCmd.Flags().
		Bool("no-history", false, "Do not record loads in the history database")
}

func runServe(cmd *cobra.Command, args []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	targets, _ := cmd.Flags().GetStringSlice("target")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	if listen == "" {
		listen = cfg.GetListen()
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		Encoding: cfg.GetEncoding(),
		Parse:    parseOptions(),
	}
	if cfg.HistoryEnabled() && !noHistory {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
	}

	discovery := playback.NewStaticDiscovery()
	for _, id := range targets {
		if id = strings.TrimSpace(id); id != "" {
			discovery.Add(playback.Target{ID: id, Label: id})
		}
	}

	registry := playback.NewRegistry(logger)
	defer registry.Close()
	if err := registry.Watch(ctx, discovery); err != nil {
		return fmt.Errorf("failed to watch targets: %w", err)
	}

	srv := server.New(registry, discovery, opts, logger)
	return srv.Run(ctx, listen)
}

func openHistory() (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Opened history", "path", path)
	return store, nil
}
