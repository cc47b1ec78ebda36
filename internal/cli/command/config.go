package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/config"
)

// ConfigCommand returns the config command group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI config file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: configShowAction,
			},
			{
				Name:  "init",
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: configInitAction,
			},
			{
				Name:      "set-profile",
				Usage:     "Add or change a named server profile",
				ArgsUsage: "NAME ADDRESS",
				Action:    configSetProfileAction,
			},
			{
				Name:      "use",
				Usage:     "Select the profile used when --server is not given",
				ArgsUsage: "NAME",
				Action:    configUseAction,
			},
		},
	}
}

func configPath(s *Settings) string {
	if s.ConfigPath != "" {
		return s.ConfigPath
	}
	return config.DefaultConfigPath()
}

func configShowAction(c *cli.Context) error {
	s := GetSettings(c)
	effective := *s.Config
	effective.Server = s.Server
	effective.Output = string(s.Format)
	effective.Timeout = s.Timeout
	return render(c, effective)
}

func configInitAction(c *cli.Context) error {
	path := configPath(GetSettings(c))
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func configSetProfileAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("set-profile requires NAME and ADDRESS")
	}
	s := GetSettings(c)
	cfg := s.Config
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]config.Profile)
	}
	cfg.Profiles[c.Args().Get(0)] = config.Profile{Server: c.Args().Get(1)}
	return config.Save(cfg, configPath(s))
}

func configUseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("use requires NAME")
	}
	s := GetSettings(c)
	name := c.Args().First()
	if _, ok := s.Config.Profiles[name]; !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	s.Config.Current = name
	return config.Save(s.Config, configPath(s))
}
