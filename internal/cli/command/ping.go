package command

import (
	"time"

	"github.com/urfave/cli/v2"
)

// PingResult reports a round trip to the server.
type PingResult struct {
	Server   string `json:"server" yaml:"server"`
	Greeting string `json:"greeting" yaml:"greeting"`
	Latency  string `json:"latency" yaml:"latency"`
}

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Connect, read the greeting and disconnect",
		Action: pingAction,
	}
}

func pingAction(c *cli.Context) error {
	start := time.Now()
	client, err := dial(c)
	if err != nil {
		return err
	}
	if _, err := client.Exec(ctxOf(c)); err != nil {
		return err
	}

	return render(c, PingResult{
		Server:   GetSettings(c).Server,
		Greeting: client.Greeting(),
		Latency:  time.Since(start).Round(time.Microsecond).String(),
	})
}
