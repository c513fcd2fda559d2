package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/oliverisaac/goli"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/lib/store/memstore"
	"github.com/oliverisaac/keepnotes/lib/store/mongostore"
	"github.com/oliverisaac/keepnotes/lib/store/sqlstore"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func init() {
	goli.InitLogrus(logrus.InfoLevel)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the keepnotes web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root := &cobra.Command{
		Use:           "keepnotes",
		Short:         "A personal notes service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	root.AddCommand(serveCmd, &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	})
	return root
}

func loadConfig() (types.Config, error) {
	err := godotenv.Load(".env")
	if err != nil && !os.IsNotExist(err) {
		logrus.Error(errors.Wrap(err, "Failed to load .env"))
	}

	tz := os.Getenv("TZ")
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return types.Config{}, errors.Wrap(err, "failed to load timezone")
		}
		time.Local = loc
	}

	cfg, err := types.ConfigFromEnv()
	if err != nil {
		return types.Config{}, errors.Wrap(err, "Loading config from env")
	}
	logrus.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// app holds the open backends. The gorm database always stores users; notes live wherever
// KEEPNOTES_NOTE_STORE points.
type app struct {
	db    *gorm.DB
	notes store.Store
}

func openApp(ctx context.Context, cfg types.Config) (*app, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == types.DBDriverPostgres {
		dsn = cfg.DBDSN
	}

	db, err := sqlstore.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := db.AutoMigrate(&types.User{}); err != nil {
		closeDB(db)
		return nil, errors.Wrap(err, "Failed to migrate")
	}

	a := &app{db: db}
	switch cfg.NoteStore {
	case types.NoteStoreMongo:
		a.notes, err = mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case types.NoteStoreMemory:
		logrus.Warn("Notes are kept in memory and will be lost on restart")
		a.notes = memstore.New()
	default:
		sql := sqlstore.New(db)
		err = sql.Migrate(ctx)
		a.notes = sql
	}
	if err != nil {
		closeDB(db)
		return nil, errors.Wrapf(err, "opening %s note store", cfg.NoteStore)
	}

	logrus.Infof("Using %s database with %s note store", cfg.DBDriver, cfg.NoteStore)
	return a, nil
}

func (a *app) Close() error {
	err := a.notes.Close()
	closeDB(a.db)
	return err
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Error(errors.Wrap(err, "getting sql db"))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.Error(errors.Wrap(err, "closing database"))
	}
}

func migrate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	logrus.Info("Migrations complete")
	return a.Close()
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := notes.New(a.notes, notes.WithBatchConcurrency(cfg.BatchConcurrency))
	e := newServer(cfg, a.db, svc, metrics{
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("Listening on %s", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "starting server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Wrap(e.Shutdown(shutdownCtx), "shutting down server")
	})
	return g.Wait()
}
