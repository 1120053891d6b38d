// Command nsdbd starts the nsdb server: it assembles a config.Configuration
// from (in ascending priority) built-in defaults, a YAML config file, process
// environment, and CLI flags, then wires the storage/namespace/executor
// stack into one netsvc.Listener per configured endpoint.
package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/nsdb/nsdb/internal/config"
	"github.com/nsdb/nsdb/internal/exec"
	"github.com/nsdb/nsdb/internal/gns"
	"github.com/nsdb/nsdb/internal/netsvc"
	"github.com/nsdb/nsdb/internal/storage"
)

func main() {
	app := &cli.App{
		Name:  "nsdbd",
		Usage: "nsdb server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "host", EnvVars: []string{"NSDB_HOST"}, Usage: "listen host for the default endpoint"},
			&cli.IntFlag{Name: "port", EnvVars: []string{"NSDB_PORT"}, Usage: "listen port for the default endpoint"},
			&cli.StringFlag{Name: "mode", EnvVars: []string{"NSDB_MODE"}, Usage: "dev or prod"},
			&cli.StringFlag{Name: "data-dir", EnvVars: []string{"NSDB_DATA_DIR"}, Usage: "durable storage directory"},
			&cli.StringFlag{Name: "root-password", EnvVars: []string{"NSDB_ROOT_PASSWORD"}, Usage: "root credential seeded on first run"},
			&cli.IntFlag{Name: "max-connections", EnvVars: []string{"NSDB_MAX_CONNECTIONS"}, Usage: "CLIM: max concurrent accepted connections"},
			&cli.BoolFlag{Name: "tls", EnvVars: []string{"NSDB_TLS"}, Usage: "require TLS on the default endpoint"},
			&cli.StringFlag{Name: "tls-cert", EnvVars: []string{"NSDB_TLS_CERT"}},
			&cli.StringFlag{Name: "tls-key", EnvVars: []string{"NSDB_TLS_KEY"}},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("nsdbd: %v", err)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		loaded, err := loadConfigFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlagOverrides(c, &cfg)

	if err := cfg.Validate(maxOpenFiles()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(os.Stderr, "nsdbd ", log.LstdFlags)

	sysDB, reconcile, err := storage.OpenOrInit(cfg.DataDir, cfg.RootPassword, true)
	if err != nil {
		return fmt.Errorf("opening sys.db: %w", err)
	}
	switch reconcile {
	case storage.UpdatedRoot:
		logger.Printf("root password rotated to match configuration")
	case storage.UpdatedAuthEnabled:
		logger.Printf("authentication enabled by configuration")
	case storage.UpdatedAuthDisabled:
		logger.Printf("authentication disabled by configuration")
	}

	gnsData := gns.New()
	store, err := exec.OpenStore(cfg.DataDir, gnsData)
	if err != nil {
		return fmt.Errorf("opening durable store: %w", err)
	}
	defer store.Close()

	var tlsCfg *tls.Config
	if cfg.TLS.CertPath != "" || cfg.TLS.KeyPath != "" {
		tlsCfg, err = netsvc.BuildTLSConfig(cfg.TLS)
		if err != nil {
			return err
		}
	}

	factory := exec.NewFactory(gnsData, store)

	listeners := make([]*netsvc.Listener, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		var epTLS *tls.Config
		if ep.TLS {
			epTLS = tlsCfg
		}
		l, err := netsvc.Listen(ep, epTLS, cfg.MaxConnections, sysDB.Auth, factory, logger)
		if err != nil {
			for _, started := range listeners {
				started.Shutdown()
			}
			return err
		}
		listeners = append(listeners, l)
		logger.Printf("listening on %s (tls=%v)", ep.Addr(), ep.TLS)
	}

	var wg sync.WaitGroup
	for _, l := range listeners {
		wg.Add(1)
		go func(l *netsvc.Listener) {
			defer wg.Done()
			if err := l.Serve(); err != nil {
				logger.Printf("listener stopped: %v", err)
			}
		}(l)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")

	for _, l := range listeners {
		if err := l.Shutdown(); err != nil {
			logger.Printf("listener shutdown error: %v", err)
		}
	}
	wg.Wait()
	return nil
}

// maxOpenFiles reports the process's current RLIMIT_NOFILE soft limit, used
// by Configuration.Validate to catch a prod/TLS max_connections setting that
// would exhaust file descriptors. 0 if the limit can't be read.
func maxOpenFiles() int {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0
	}
	return int(rlimit.Cur)
}

func loadConfigFile(path string) (config.Configuration, error) {
	cfg := config.Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlagOverrides layers CLI-flag (and, via urfave/cli's EnvVars binding,
// environment-variable) values over whatever defaults/YAML already produced.
// A flag only overrides when explicitly set, so an unset flag never stomps a
// value the config file provided.
func applyFlagOverrides(c *cli.Context, cfg *config.Configuration) {
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = []config.Endpoint{{}}
	}
	if c.IsSet("host") {
		cfg.Endpoints[0].Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Endpoints[0].Port = c.Int("port")
	}
	if c.IsSet("tls") {
		cfg.Endpoints[0].TLS = c.Bool("tls")
	}
	if c.IsSet("mode") {
		cfg.Mode = config.RunMode(c.String("mode"))
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("root-password") {
		cfg.RootPassword = c.String("root-password")
	}
	if c.IsSet("max-connections") {
		cfg.MaxConnections = c.Int("max-connections")
	}
	if c.IsSet("tls-cert") {
		cfg.TLS.CertPath = c.String("tls-cert")
	}
	if c.IsSet("tls-key") {
		cfg.TLS.KeyPath = c.String("tls-key")
	}
}
