package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/mqttserver"
	consolehost "github.com/mikey-austin/simplert/internal/modules/console_host"
	embeddedmqtt "github.com/mikey-austin/simplert/internal/modules/embedded_mqtt"
	"github.com/mikey-austin/simplert/internal/rtd"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

const (
	moduleConsoleHost  = "console_host"
	moduleEmbeddedMQTT = "embedded_mqtt"
)

// options carries command line overrides.
type options struct {
	configPath  string
	broker      string
	identity    string
	topicBase   string
	logLevel    string
	logFormat   string
	logOutput   string
	logSource   bool
	logUTC      bool
	logColor    bool
	printConfig bool
	dryRun      bool
	moduleOnly  string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := rtd.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, opts)

	if opts.printConfig {
		printResolvedConfig(os.Stdout, cfg)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.dryRun {
		return
	}

	logger, err := rtd.NewLogger(rtd.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
		Color:     cfg.Server.LogColor,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, opts.moduleOnly, logger); err != nil {
		logger.Error("rtd failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	defaultConfig, err := rtd.DefaultConfigPath()
	if err != nil {
		return opts, err
	}

	fs := flag.NewFlagSet("rtd", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", defaultConfig, "config file path")
	fs.StringVar(&opts.broker, "broker", "", "MQTT broker URL override")
	fs.StringVar(&opts.identity, "identity", "", "server identity override")
	fs.StringVar(&opts.topicBase, "topic-base", "", "topic base override")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level override")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format override (text|json)")
	fs.StringVar(&opts.logOutput, "log-output", "", "log output override (stdout|stderr|path)")
	fs.BoolVar(&opts.logSource, "log-source", false, "include source file in logs")
	fs.BoolVar(&opts.logUTC, "log-utc", false, "use UTC timestamps in logs")
	fs.BoolVar(&opts.logColor, "log-color", false, "enable colored log output (text only)")
	fs.StringVar(&opts.moduleOnly, "module", "", "limit to a single module")
	fs.BoolVar(&opts.printConfig, "print-config", false, "print resolved config and exit")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "validate config and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch opts.moduleOnly {
	case "", moduleConsoleHost, moduleEmbeddedMQTT:
	default:
		return opts, fmt.Errorf("unknown module %q", opts.moduleOnly)
	}
	return opts, nil
}

func run(cfg rtd.Config, moduleOnly string, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("rtd starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("identity", cfg.Server.Identity),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.Strings("modules", enabledModules(cfg, moduleOnly)),
	)

	modules := []rtd.ModuleRunner{}
	consoleEnabled := cfg.Modules.ConsoleHost.Enabled && (moduleOnly == "" || moduleOnly == moduleConsoleHost)
	embeddedEnabled := cfg.Modules.EmbeddedMQTT.Enabled && (moduleOnly == "" || moduleOnly == moduleEmbeddedMQTT)
	if embeddedEnabled {
		mod, err := newEmbeddedBroker(cfg, logger)
		if err != nil {
			return err
		}
		if consoleEnabled && cfg.Server.Broker == mod.URL() {
			// Local modules connect to this broker, so it must be listening first.
			if err := startEmbeddedBroker(ctx, mod, logger, cancel); err != nil {
				return err
			}
		} else {
			modules = append(modules, rtd.ModuleRunner{Name: moduleEmbeddedMQTT, Run: mod.Run})
		}
	}

	if consoleEnabled {
		if cfg.Server.Broker == "" {
			return errors.New("broker is required")
		}
		host := cfg.Modules.ConsoleHost
		client, err := mqttserver.NewClient(mqttserver.Options{
			BrokerURL: cfg.Server.Broker,
			ClientID:  fmt.Sprintf("rtd-%s-%d", cfg.Server.Identity, time.Now().UnixNano()),
			Username:  cfg.Server.Auth.User,
			Password:  cfg.Server.Auth.Pass,
			TLSCA:     cfg.Server.TLS.CA,
			TLSCert:   cfg.Server.TLS.Cert,
			TLSKey:    cfg.Server.TLS.Key,
			Timeout:   2 * time.Second,
			Logger:    logger.With(zap.String("component", "mqtt")),
			Debug:     strings.EqualFold(cfg.Server.LogLevel, "debug"),
			WillTopic: rtproto.TopicPresence(cfg.Server.TopicBase, host.NodeID),
		})
		if err != nil {
			return fmt.Errorf("mqtt connection failed: %w", err)
		}
		defer client.Close()

		out, closeOut, err := openOutput(host.Output)
		if err != nil {
			return err
		}
		defer closeOut()

		runner, err := buildConsoleHost(cfg, client, out, logger)
		if err != nil {
			return err
		}
		modules = append(modules, runner)
	}

	supervisor := rtd.Supervisor{Logger: logger}
	return supervisor.Run(ctx, modules)
}

func buildConsoleHost(cfg rtd.Config, transport consolehost.Transport, out io.Writer, logger *zap.Logger) (rtd.ModuleRunner, error) {
	host := cfg.Modules.ConsoleHost
	mod, err := consolehost.NewModule(logger.With(zap.String("module", moduleConsoleHost)), transport, out, consolehost.Config{
		NodeID:    host.NodeID,
		TopicBase: cfg.Server.TopicBase,
		Name:      host.Name,
		Encoding:  host.Encoding,
	})
	if err != nil {
		return rtd.ModuleRunner{}, err
	}
	return rtd.ModuleRunner{Name: moduleConsoleHost, Run: mod.Run}, nil
}

func newEmbeddedBroker(cfg rtd.Config, logger *zap.Logger) (*embeddedmqtt.Module, error) {
	mq := cfg.Modules.EmbeddedMQTT
	return embeddedmqtt.NewModule(logger.With(zap.String("module", moduleEmbeddedMQTT)), embeddedmqtt.Config{
		Listen:         mq.ListenAddr(),
		AllowAnonymous: mq.AllowAnonymous,
		Username:       mq.Username,
		Password:       mq.Password,
		TLSCA:          mq.TLSCA,
		TLSCert:        mq.TLSCert,
		TLSKey:         mq.TLSKey,
		TopicBase:      cfg.Server.TopicBase,
	})
}

func startEmbeddedBroker(ctx context.Context, mod *embeddedmqtt.Module, logger *zap.Logger, cancel context.CancelFunc) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- mod.Run(ctx)
	}()

	select {
	case <-mod.Ready():
	case err := <-errCh:
		if err == nil {
			err = errors.New("embedded mqtt stopped before it was ready")
		}
		return err
	case <-time.After(3 * time.Second):
		return fmt.Errorf("embedded mqtt not ready at %s", mod.URL())
	}

	go func() {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()
	return nil
}

// openOutput resolves the console output: stdout, stderr or a file opened
// for appending.
func openOutput(target string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch strings.TrimSpace(target) {
	case "", "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open console output: %w", err)
	}
	return f, f.Close, nil
}

func applyOverrides(cfg *rtd.Config, opts options) {
	if opts.broker != "" {
		cfg.Server.Broker = opts.broker
	}
	if opts.identity != "" {
		cfg.Server.Identity = opts.identity
	}
	if opts.topicBase != "" {
		cfg.Server.TopicBase = opts.topicBase
	}
	if opts.logLevel != "" {
		cfg.Server.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Server.LogFormat = opts.logFormat
	}
	if opts.logOutput != "" {
		cfg.Server.LogOutput = opts.logOutput
	}
	if opts.logSource {
		cfg.Server.LogSource = true
	}
	if opts.logUTC {
		cfg.Server.LogUTC = true
	}
	if opts.logColor {
		cfg.Server.LogColor = true
	}
	if cfg.Server.TopicBase == "" {
		cfg.Server.TopicBase = rtproto.BaseTopic
	}
	if cfg.Server.Identity == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.Server.Identity = host
		} else {
			cfg.Server.Identity = "rtd"
		}
	}
	if cfg.Modules.ConsoleHost.NodeID == "" {
		cfg.Modules.ConsoleHost.NodeID = "rt:console:" + cfg.Server.Identity
	}
	mq := cfg.Modules.EmbeddedMQTT
	if cfg.Server.Broker == "" && mq.Enabled {
		cfg.Server.Broker = embeddedmqtt.BrokerURL(mq.ListenAddr(), mq.TLSEnabled())
	}
}

func enabledModules(cfg rtd.Config, moduleOnly string) []string {
	out := []string{}
	if cfg.Modules.EmbeddedMQTT.Enabled && (moduleOnly == "" || moduleOnly == moduleEmbeddedMQTT) {
		out = append(out, moduleEmbeddedMQTT)
	}
	if cfg.Modules.ConsoleHost.Enabled && (moduleOnly == "" || moduleOnly == moduleConsoleHost) {
		out = append(out, moduleConsoleHost)
	}
	return out
}

func printResolvedConfig(w io.Writer, cfg rtd.Config) {
	fmt.Fprintf(w,
		"broker=%s identity=%s topic_base=%s log_level=%s log_format=%s log_output=%s log_source=%t log_utc=%t log_color=%t\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Server.LogOutput,
		cfg.Server.LogSource,
		cfg.Server.LogUTC,
		cfg.Server.LogColor,
	)
	host := cfg.Modules.ConsoleHost
	fmt.Fprintf(w, "console_host enabled=%t node_id=%s output=%s encoding=%s\n",
		host.Enabled, host.NodeID, host.Output, host.Encoding)
	mq := cfg.Modules.EmbeddedMQTT
	fmt.Fprintf(w, "embedded_mqtt enabled=%t listen=%s tls=%t anonymous=%t\n",
		mq.Enabled, mq.ListenAddr(), mq.TLSEnabled(), mq.AllowAnonymous)
}
