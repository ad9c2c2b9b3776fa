package commands

import (
	"fmt"
	"time"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/config"
	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session holds what every subcommand needs once the root pre-run has opened storage
type session struct {
	dbPath string
	debug  bool
	now    func() time.Time

	cfg    *config.Config
	logger *zap.Logger
	rt     *app.Runtime
}

// NewRootCmd creates the taskctl command tree
func NewRootCmd() *cobra.Command {
	s := &session{now: time.Now}

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage the Smart Tasks store from the command line",
		Long:          "Inspect and change tasks, categories and sync settings in the local store used by the Smart Tasks API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return s.close()
		},
	}
	root.PersistentFlags().StringVar(&s.dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	root.PersistentFlags().BoolVar(&s.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newTasksCmd(s))
	root.AddCommand(newStatsCmd(s))
	root.AddCommand(newCategoriesCmd(s))
	root.AddCommand(newSyncCmd(s))
	root.AddCommand(newRemindersCmd(s))
	root.AddCommand(newStorageCmd(s))
	return root
}

func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.dbPath != "" {
		cfg.DatabasePath = s.dbPath
	}

	log, err := logger.New("taskctl", s.debug || cfg.ServerDebugMode, logger.EncodingConsole)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	rt, err := app.Open(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	s.cfg, s.logger, s.rt = cfg, log, rt
	return nil
}

func (s *session) close() error {
	if s.logger != nil {
		_ = logger.Sync(s.logger)
	}
	if s.rt == nil {
		return nil
	}
	err := s.rt.Close()
	s.rt = nil
	if err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
