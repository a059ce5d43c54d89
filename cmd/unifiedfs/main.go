package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"unifiedfs/internal/api"
	"unifiedfs/internal/config"
	"unifiedfs/internal/fs"
	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"
)

var (
	logger = logging.GetLogger()
)

const usage = `Usage: unifiedfs <command> [flags]

Commands:
  serve     Serve the provider over HTTP
  mount     Mount the provider namespace read-only with FUSE
  resolve   Print the content URI of a file path
  ls        List the children of a document
  init      Write a default configuration file

Run 'unifiedfs <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "mount":
		err = runMount(args)
	case "resolve":
		err = runResolve(args)
	case "ls":
		err = runList(args)
	case "init":
		err = runInit(args)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	_ = logging.Sync()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Error("%v", err)
		}
		os.Exit(1)
	}
}

// commonFlags are accepted by every command that needs a configuration.
type commonFlags struct {
	configPath string
	verbose    bool
}

func (c *commonFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&c.configPath, "config", "", "Configuration file (default "+config.GetDefaultConfigPath()+")")
	fset.BoolVar(&c.verbose, "verbose", false, "Enable verbose logging")
}

// load reads the configuration and sets up logging from it.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	if err := logging.Init(cfg.LoggerConfig()); err != nil {
		return nil, err
	}
	if c.verbose {
		logger.SetLevel(logging.LevelDebug)
	}
	return cfg, nil
}

func newProvider(cfg *config.Config) (*provider.Provider, error) {
	settings := cfg.ProviderSettings()
	logger.Debug("Base directory: %s", settings.BaseDir)
	logger.Debug("Top directories: %v", settings.TopDirs)

	p, err := provider.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return p, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe(args []string) error {
	var common commonFlags
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	common.register(fset)
	listen := fset.String("listen", "", "Listen address (overrides server.listen)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	logger.Info("Starting unifiedfs server...")
	p, err := newProvider(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	srv := api.NewServer(p, api.Options{EnableMetrics: cfg.Server.Metrics})
	if err := srv.ListenAndServe(ctx, cfg.Server.Listen, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	logger.Info("Clean shutdown complete")
	return nil
}

func runMount(args []string) error {
	var common commonFlags
	fset := flag.NewFlagSet("mount", flag.ContinueOnError)
	common.register(fset)
	mountPoint := fset.String("mount", "", "Mount point (overrides mount.point)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *mountPoint != "" {
		cfg.Mount.Point = *mountPoint
	}
	if cfg.Mount.Point == "" {
		return errors.New("mount point is required (-mount or mount.point)")
	}
	cleanMount := filepath.Clean(cfg.Mount.Point)

	logger.Info("Starting unifiedfs mount...")
	p, err := newProvider(cfg)
	if err != nil {
		return err
	}

	vfs := fs.NewUnifiedFS(p, fs.Options{AllowOther: cfg.Mount.AllowOther})
	if err := vfs.Mount(cleanMount); err != nil {
		return err
	}
	logger.Info("Filesystem mounted at %s and ready", cleanMount)

	ctx, stop := signalContext()
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		if err := vfs.Unmount(cleanMount); err != nil {
			return fmt.Errorf("unmount error: %w", err)
		}
	case err := <-vfs.Served():
		if err != nil {
			return fmt.Errorf("FUSE server stopped: %w", err)
		}
		logger.Info("Filesystem was unmounted externally")
	}

	logger.Info("Clean shutdown complete")
	return nil
}

func runInit(args []string) error {
	fset := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fset.String("config", "", "Where to write the configuration (default "+config.GetDefaultConfigPath()+")")
	force := fset.Bool("force", false, "Overwrite an existing file")
	if err := fset.Parse(args); err != nil {
		return err
	}

	path, err := config.InitConfig(*configPath, *force)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
