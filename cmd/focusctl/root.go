package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"focusblock/internal/client/api"
	clientconfig "focusblock/internal/client/config"
	"focusblock/internal/client/controller"
	"focusblock/internal/client/coordinator"
	"focusblock/internal/client/snapshot"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Focus-session timer client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the client config file")

	root.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newDepartmentsCmd(),
		newProjectsCmd(),
		newStartCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newCancelCmd(),
		newCompleteCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newHistoryCmd(),
	)
	return root
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return clientconfig.DefaultPath()
}

func loadClientConfig() (string, *clientconfig.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return "", nil, err
	}
	cfg, err := clientconfig.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

func newAPIClient() (*api.Client, *clientconfig.Config, error) {
	_, cfg, err := loadClientConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Token == "" {
		return nil, nil, fmt.Errorf("not logged in, run: focusctl login")
	}
	return api.New(cfg.ServerURL, cfg.Token), cfg, nil
}

// newBus prefers the session bus so every focusctl process in the login
// session shares one broadcast channel. Without a session bus (headless
// shells, CI) coordination degrades to in-process only.
func newBus(log *slog.Logger) coordinator.Bus {
	bus, err := coordinator.NewDBusBus()
	if err != nil {
		log.Debug("session bus unavailable, tab coordination is local only", "error", err)
		return coordinator.NewMemoryBus()
	}
	return bus
}

func newTimerController(onUpdate func(*snapshot.Snapshot)) (*controller.Controller, *api.Client, error) {
	apiClient, cfg, err := newAPIClient()
	if err != nil {
		return nil, nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := snapshot.NewStore(cfg.SnapshotPath)
	ctrl, err := controller.New(apiClient, store, newBus(log), controller.Options{
		OnUpdate: onUpdate,
		Logger:   log,
	})
	if err != nil {
		return nil, nil, err
	}
	return ctrl, apiClient, nil
}

func formatClock(totalSeconds int) string {
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
