package main

import (
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/remote"
	"github.com/Joseda-hg/lazytodo/internal/tasksync"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
	port       int
}

type logTarget int

const (
	logToStderr logTarget = iota
	logToFile
)

// app holds everything a command needs once config is resolved.
type app struct {
	cfg     config.Config
	cfgPath string
	logger  *slog.Logger
	sqlDB   *sql.DB
	store   *db.Store
	tasks   *tasksync.Orchestrator

	closers []io.Closer
}

func openApp(flags *globalFlags, target logTarget, stderr io.Writer) (*app, error) {
	cfgPath, err := resolveConfigPath(flags.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.db")
	}
	if flags.port != 0 {
		cfg.WebPort = flags.port
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}

	a := &app{cfg: cfg, cfgPath: cfgPath}

	switch target {
	case logToFile:
		logPath := cfg.LogFile
		if logPath == "" {
			logPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.log")
		}
		logger, closer, err := logging.NewFile(logPath, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	default:
		a.logger = logging.New(stderr, cfg.LogLevel)
	}

	sqlDB, store, err := openStore(cfg.DBPath, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sqlDB = sqlDB
	a.store = store
	a.closers = append(a.closers, sqlDB)

	source := remote.NewClient(cfg.RemoteURL, &http.Client{Timeout: cfg.Timeout()})
	a.tasks = tasksync.New(store, source, tasksync.WithLogger(a.logger))
	return a, nil
}

// saveConfigIfMissing writes the resolved config on first run.
func (a *app) saveConfigIfMissing() error {
	if _, err := os.Stat(a.cfgPath); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return config.Save(a.cfgPath, a.cfg)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(dbPath string, logger *slog.Logger) (*sql.DB, *db.Store, error) {
	if dbPath != ":memory:" {
		if err := config.EnsureDir(dbPath); err != nil {
			return nil, nil, err
		}
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return sqlDB, db.NewStore(sqlDB, logger), nil
}
