package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warden-ai/warden/internal/config"
	"github.com/warden-ai/warden/internal/logging"
	"github.com/warden-ai/warden/internal/permission"
	"github.com/warden-ai/warden/internal/server"
	"github.com/warden-ai/warden/internal/state"
	"github.com/warden-ai/warden/internal/storage"
	"github.com/warden-ai/warden/internal/tool"
	"github.com/warden-ai/warden/internal/watch"
)

var (
	servePort    int
	serveDir     string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the warden server",
	Long: `Start warden as a server that exposes tool execution over an HTTP API.

Approval requests stream over the /event endpoint; an external approver
resolves them with POST /approval/{requestID}.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable read-record invalidation on external file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if servePort != 0 {
		appConfig.Port = servePort
	}
	if logLevel != "" {
		appConfig.LogLevel = logLevel
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(appConfig.LogLevel),
		Pretty: true,
	})

	logging.Info().
		Str("version", Version).
		Str("workDir", appConfig.WorkDir).
		Msg("starting warden server")

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	store := storage.New(appConfig.DataDir)
	st := state.New()
	perms := permission.NewManager(store, st)
	toolReg := tool.DefaultRegistry(appConfig.WorkDir, st, perms)

	var watcher *watch.Watcher
	if !serveNoWatch && (appConfig.WatchFiles == nil || *appConfig.WatchFiles) {
		watcher, err = watch.NewWatcher(st)
		if err != nil {
			logging.Warn().Err(err).Msg("file watcher disabled")
		} else {
			watcher.Start()
		}
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = appConfig.Port
	serverConfig.Directory = appConfig.WorkDir

	srv := server.New(serverConfig, st, perms, toolReg)

	go func() {
		logging.Info().Int("port", appConfig.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	// Pending approvals never resolve after shutdown; fail them as
	// cancelled so suspended operations unwind.
	st.CancelPendingApprovals()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logging.Warn().Err(err).Msg("watcher shutdown error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
