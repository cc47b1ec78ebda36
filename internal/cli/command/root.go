package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/config"
	"github.com/yndnr/kvmesh-go/internal/cli/connection"
	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
)

const settingsKey = "settings"

// Settings is the effective configuration for one invocation.
type Settings struct {
	Config     *config.CLIConfig
	ConfigPath string
	Server     string
	Format     output.Format
	Timeout    time.Duration
	Greeting   bool
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "kvmesh-cli",
		Usage:   "client for the kvmesh key/value server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			CreateCommand(),
			ReadCommand(),
			UpdateCommand(),
			DeleteCommand(),
			SubCommand(),
			PingCommand(),
			ConfigCommand(),
		},
		Before: loadSettings,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.kvmesh/cli.yaml)",
			EnvVars: []string{"KVMESH_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address host:port (overrides profile)",
			EnvVars: []string{"KVMESH_SERVER"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "named profile from the config file",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "dial and request timeout",
		},
		&cli.BoolFlag{
			Name:  "no-greeting",
			Usage: "do not wait for a greeting line on connect",
		},
	}
}

func loadSettings(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := map[string]string{
		"server": c.String("server"),
		"output": c.String("output"),
	}
	if c.IsSet("timeout") {
		flags["timeout"] = c.Duration("timeout").String()
	}
	merged, err := config.Merge(cfg, flags)
	if err != nil {
		return err
	}

	server, ok := merged.ServerAddr(c.String("profile"))
	if !ok {
		return fmt.Errorf("unknown profile %q", c.String("profile"))
	}
	if c.String("server") != "" {
		server = merged.Server
	}

	format, err := output.ParseFormat(merged.Output)
	if err != nil {
		return err
	}

	c.App.Metadata[settingsKey] = &Settings{
		Config:     cfg,
		ConfigPath: path,
		Server:     server,
		Format:     format,
		Timeout:    merged.Timeout,
		Greeting:   !c.Bool("no-greeting"),
	}
	return nil
}

// GetSettings returns the settings resolved by the Before hook.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{
		Config:   config.Default(),
		Server:   config.DefaultServer,
		Format:   output.FormatTable,
		Timeout:  config.DefaultTimeout,
		Greeting: true,
	}
}

func dial(c *cli.Context) (*connection.Client, error) {
	s := GetSettings(c)
	opts := []connection.Option{connection.WithTimeout(s.Timeout)}
	if !s.Greeting {
		opts = append(opts, connection.WithoutGreeting())
	}
	return connection.Dial(ctxOf(c), s.Server, opts...)
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func render(c *cli.Context, data any) error {
	return output.NewFormatter(GetSettings(c).Format).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
