package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rusackas/haas-addon/internal/api"
	"github.com/rusackas/haas-addon/internal/config"
	"github.com/rusackas/haas-addon/internal/log"
	"github.com/rusackas/haas-addon/internal/server"
	"github.com/rusackas/haas-addon/internal/stats"
)

var (
	AppVersion    = "Development"
	shutdownChain []func() error
)

var rootCmd = &cobra.Command{
	Use:   "haas-ingress",
	Short: "haas-ingress is a path-rewriting ingress proxy",
	Long: "haas-ingress fronts a web application behind a supervisor ingress, " +
		"rewriting HTML, script and redirect URLs so the app works unmodified " +
		"under a per-request mount prefix.",
	RunE: runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Short flags
	rootCmd.Flags().StringP("config", "c", "", "Config file path")
	rootCmd.Flags().StringP("bind", "b", "", "Bind address")
	rootCmd.Flags().IntP("port", "p", 0, "Port")
	rootCmd.Flags().StringP("upstream", "u", "", "Upstream application URL")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level")
	rootCmd.Flags().BoolP("version", "v", false, "Show version")
	rootCmd.Flags().BoolP("generate-config", "g", false, "Generate template config file")

	// Long flags
	rootCmd.Flags().String("log-file", "", "Log file path (rotating)")
	rootCmd.Flags().String("prefix-header", "", "Request header carrying the mount prefix")
	rootCmd.Flags().String("stats-file", "", "Rewrite statistics dump file")
	rootCmd.Flags().Bool("api", false, "Enable the admin API server")
	rootCmd.Flags().String("api-address", "", "Admin API listen address")
	rootCmd.Flags().String("api-secret", "", "Admin API bearer secret")

	// Bind all flags to viper using consistent key names
	_ = viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	_ = viper.BindPFlag("bind-address", rootCmd.Flags().Lookup("bind"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("upstream", rootCmd.Flags().Lookup("upstream"))
	_ = viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
	_ = viper.BindPFlag("log-file", rootCmd.Flags().Lookup("log-file"))
	_ = viper.BindPFlag("prefix-header", rootCmd.Flags().Lookup("prefix-header"))
	_ = viper.BindPFlag("stats-file", rootCmd.Flags().Lookup("stats-file"))
	_ = viper.BindPFlag("api.enabled", rootCmd.Flags().Lookup("api"))
	_ = viper.BindPFlag("api.address", rootCmd.Flags().Lookup("api-address"))
	_ = viper.BindPFlag("api.secret", rootCmd.Flags().Lookup("api-secret"))

	// Bind environment variables
	viper.SetEnvPrefix("HAAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.MergeInConfig(); err != nil {
			slog.Error("Failed to read config file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	config.SetDefaults()
}

func runRoot(cmd *cobra.Command, args []string) error {
	// Handle -v / --version
	showVer, _ := cmd.Flags().GetBool("version")
	if showVer {
		fmt.Printf("haas-ingress version %s\n", AppVersion)
		return nil
	}

	// Handle -g / --generate-config
	genConfig, _ := cmd.Flags().GetBool("generate-config")
	if genConfig {
		_, err := config.GenerateTemplateConfig(true)
		if err != nil {
			return fmt.Errorf("failed to generate template config: %w", err)
		}
		fmt.Println("Template config file 'config.yaml' generated successfully.")
		return nil
	}

	cfg, err := config.BuildConfigFromViper()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	var broadcaster *log.Broadcaster
	if cfg.API.Enabled {
		broadcaster = log.NewBroadcaster()
	}
	log.Setup(cfg, broadcaster)
	log.Header(AppVersion, cfg)

	recorder := stats.NewRecorder(cfg.StatsFile)
	recorder.Run()
	addShutdown("recorder.Close", recorder.Close)

	srv, err := server.New(cfg, recorder)
	if err != nil {
		slog.Error("server.New", slog.Any("error", err))
		shutdown()
		return err
	}
	addShutdown("srv.Close", srv.Close)
	if err := srv.Start(); err != nil {
		slog.Error("srv.Start", slog.Any("error", err))
		shutdown()
		return err
	}

	if cfg.API.Enabled {
		apiSrv := api.New(cfg.API.Address, AppVersion, cfg, srv.Rules(), recorder, broadcaster)
		addShutdown("apiSrv.Close", apiSrv.Close)
		if err := apiSrv.Start(); err != nil {
			slog.Error("apiSrv.Start", slog.Any("error", err))
			shutdown()
			return err
		}
	}

	cleanup := make(chan os.Signal, 1)
	signal.Notify(cleanup, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
	for {
		s := <-cleanup
		slog.Info("Received signal", slog.String("signal", s.String()))
		switch s {
		case syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM:
			shutdown()
			return nil
		case syscall.SIGHUP:
		default:
			return nil
		}
	}
}

func addShutdown(name string, fn func() error) {
	shutdownChain = append(shutdownChain, func() error {
		if err := fn(); err != nil {
			slog.Error(name, slog.Any("error", err))
			return err
		}
		return nil
	})
}

func shutdown() {
	for i := len(shutdownChain) - 1; i >= 0; i-- {
		_ = shutdownChain[i]()
	}
	slog.Info("haas-ingress exit")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
