package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sqlbridge/internal/core"
	"sqlbridge/internal/dialect"
	"sqlbridge/internal/registry"
	"sqlbridge/internal/sqlclient"
)

var (
	dsn         string
	dialectName string
	cfgFile     string
	verbose     bool

	// Set by connect for commands that need a live database.
	Client   core.Client
	Provider core.Provider
	Caps     core.CapabilityMatrix
	Logger   *slog.Logger
)

// offline marks commands that never open a connection.
const offline = "offline"

var RootCmd = &cobra.Command{
	Use:   "sqlbridge",
	Short: "One SQL surface over MySQL, PostgreSQL, SQLite, SQL Server and Oracle",
	Long: `sqlbridge connects to any supported engine through one client,
inspects its schema, renders dialect-correct DDL and seeds test data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		registry.RegisterAll(dialect.Providers(
			sqlclient.WithLogger(Logger),
			sqlclient.WithSlowThreshold(viper.GetDuration("settings.slow_query")),
		)...)
		if cmd.Annotations[offline] != "" {
			return nil
		}
		return connect(cmd.Context())
	},
}

func Execute() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// execute runs the root command and closes the client afterwards. Cobra
// skips post-run hooks when a command fails, so the close lives here.
func execute(ctx context.Context) error {
	err := RootCmd.ExecuteContext(ctx)
	if Client != nil {
		if cerr := Client.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close connection: %w", cerr))
		}
		Client = nil
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sqlbridge.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "connection URL or driver DSN")
	RootCmd.PersistentFlags().StringVar(&dialectName, "dialect", "", "dialect when the DSN does not tell (mysql, postgres, sqlite, mssql, oracle)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.dialect", RootCmd.PersistentFlags().Lookup("dialect"))
	viper.SetDefault("settings.slow_query", "0s")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Next to the executable first, then the working directory.
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("sqlbridge")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SQLBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(Logger)
}

func connect(ctx context.Context) error {
	src, fallback, err := connectionSource()
	if err != nil {
		return err
	}
	det, err := registry.ConnectAndDetect(ctx, src, fallback)
	if err != nil {
		return err
	}
	Client, Provider, Caps = det.Client, det.Provider, det.Capabilities
	Logger.Debug("connected", "dialect", det.Dialect.String())
	return nil
}
