package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mikey-austin/simplert/internal/adapters/clock"
	"github.com/mikey-austin/simplert/internal/adapters/config"
	"github.com/mikey-austin/simplert/internal/adapters/idgen"
	"github.com/mikey-austin/simplert/internal/adapters/mqtt"
	"github.com/mikey-austin/simplert/internal/adapters/output"
	"github.com/mikey-austin/simplert/internal/core"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// flags holds persistent flag values.
type flags struct {
	broker    string
	topicBase string
	identity  string
	timeout   time.Duration
	jsonOut   bool
	noColor   bool
	encoding  string
	tlsCA     string
	tlsCert   string
	tlsKey    string
	user      string
	pass      string
}

type app struct {
	cfg      config.Config
	flags    flags
	printer  output.Printer
	out      io.Writer
	encoding string
	timeout  time.Duration

	// connect is replaced in tests.
	connect func(a *app) (core.Service, func(), error)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(core.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rt",
		Short:         "Console runtime CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var f flags
	root.PersistentFlags().StringVarP(&f.broker, "broker", "b", "", "MQTT broker URL")
	root.PersistentFlags().StringVar(&f.topicBase, "topic-base", "", "MQTT topic base")
	root.PersistentFlags().StringVarP(&f.identity, "identity", "i", "", "controller identity")
	root.PersistentFlags().DurationVarP(&f.timeout, "timeout", "t", 0, "command timeout (default 2s)")
	root.PersistentFlags().BoolVarP(&f.jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable color")
	root.PersistentFlags().StringVarP(&f.encoding, "encoding", "e", "", "console character set for local printing (IANA name)")
	root.PersistentFlags().StringVar(&f.tlsCA, "tls-ca", "", "TLS CA path")
	root.PersistentFlags().StringVar(&f.tlsCert, "tls-cert", "", "TLS cert path")
	root.PersistentFlags().StringVar(&f.tlsKey, "tls-key", "", "TLS key path")
	root.PersistentFlags().StringVar(&f.user, "user", "", "MQTT username")
	root.PersistentFlags().StringVar(&f.pass, "pass", "", "MQTT password")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if f.noColor || os.Getenv("NO_COLOR") != "" {
			pterm.DisableColor()
		}

		cfg, err := config.Load()
		if err != nil {
			return core.WrapError(core.ExitUsage, "load config", err)
		}

		a := &app{
			cfg:      cfg,
			flags:    f,
			out:      cmd.OutOrStdout(),
			encoding: firstNonEmpty(f.encoding, cfg.Encoding),
			timeout:  firstDuration(f.timeout, cfg.Timeout.Duration, 2*time.Second),
			connect:  connectMQTT,
		}
		if f.jsonOut {
			a.printer = output.JSONPrinter{Out: a.out}
		} else {
			a.printer = output.HumanPrinter{Out: a.out}
		}
		if prev := fromContext(cmd); prev != nil && prev.connect != nil {
			a.connect = prev.connect
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, appKey{}, a))
		return nil
	}

	root.AddCommand(printCommand(false))
	root.AddCommand(printCommand(true))
	root.AddCommand(newlineCommand())
	root.AddCommand(checkCommand())
	root.AddCommand(sendCommand())
	root.AddCommand(lsCommand())
	return root
}

// connectMQTT builds a Service backed by a live broker connection.
func connectMQTT(a *app) (core.Service, func(), error) {
	broker := firstNonEmpty(a.flags.broker, a.cfg.Broker)
	if broker == "" {
		return core.Service{}, nil, &core.CLIError{Code: core.ExitUsage, Msg: "broker is required (set --broker or config)"}
	}
	topicBase := firstNonEmpty(a.flags.topicBase, a.cfg.TopicBase, rtproto.BaseTopic)
	identity := defaultIdentity(a.flags.identity, a.cfg.Identity)

	ids := idgen.Generator{}
	client, err := mqtt.NewClient(mqtt.Options{
		BrokerURL: broker,
		ClientID:  "rt-" + ids.NewID(),
		Username:  firstNonEmpty(a.flags.user, a.cfg.Auth.Username),
		Password:  firstNonEmpty(a.flags.pass, a.cfg.Auth.Password),
		TLSCA:     firstNonEmpty(a.flags.tlsCA, a.cfg.TLS.CA),
		TLSCert:   firstNonEmpty(a.flags.tlsCert, a.cfg.TLS.Cert),
		TLSKey:    firstNonEmpty(a.flags.tlsKey, a.cfg.TLS.Key),
		TopicBase: topicBase,
		Timeout:   a.timeout,
	})
	if err != nil {
		return core.Service{}, nil, core.WrapError(core.ExitRuntime, "connect broker", err)
	}

	coreCfg := core.Config{
		Broker:    broker,
		Identity:  identity,
		TopicBase: topicBase,
		Aliases:   a.cfg.Aliases,
		Defaults:  core.Defaults{Console: a.cfg.Defaults.Console},
	}
	service := core.Service{
		Broker:   client,
		Resolver: core.Resolver{Presence: client, Config: coreCfg},
		Clock:    clock.Clock{},
		IDGen:    ids,
		Config:   coreCfg,
	}
	return service, client.Close, nil
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	val, _ := ctx.Value(appKey{}).(*app)
	return val
}

func mustApp(cmd *cobra.Command) (*app, error) {
	a := fromContext(cmd)
	if a == nil {
		return nil, errors.New("command context not initialized")
	}
	return a, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	if usr != nil && host != "" {
		return fmt.Sprintf("%s@%s", usr.Username, host)
	}
	if host != "" {
		return host
	}
	return "rt-unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
