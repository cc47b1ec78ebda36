package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/protocol"
)

var errEnough = errors.New("notification limit reached")

// NotificationRow is one printed notification.
type NotificationRow struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`

	raw protocol.Value
}

// Table implements output.Tabler.
func (n NotificationRow) Table() *output.Table {
	t := &output.Table{Headers: []string{"KEY", "VALUE"}}
	t.AddRow(n.Key, n.raw.String())
	return t
}

// SubCommand returns the sub command.
func SubCommand() *cli.Command {
	return &cli.Command{
		Name:      "sub",
		Aliases:   []string{"subscribe"},
		Usage:     "Print the current value of a key and every later update",
		ArgsUsage: "KEY",
		Description: "The server only answers for keys that exist at subscribe time; " +
			"for an absent key the command waits silently until interrupted.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "exit after N notifications (0 = until interrupted)",
			},
		},
		Action: subAction,
	}
}

func subAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("sub requires KEY")
	}
	key := c.Args().First()
	if err := validateKey(key); err != nil {
		return err
	}

	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	limit := c.Int("count")
	printer := newStreamPrinter(c.App.Writer, GetSettings(c).Format)
	seen := 0

	err = client.Subscribe(ctxOf(c), key, func(n protocol.Notification) error {
		row := NotificationRow{Key: n.Key, Value: n.Value.Native(), raw: n.Value}
		if err := printer.print(row); err != nil {
			return err
		}
		seen++
		if limit > 0 && seen >= limit {
			return errEnough
		}
		return nil
	})
	switch {
	case errors.Is(err, errEnough), errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, io.EOF):
		return errors.New("server closed the connection")
	case err != nil:
		return fmt.Errorf("sub %s: %w", key, err)
	}
	return nil
}

// streamPrinter writes a sequence of results in one format: one table
// header, one JSON object per line, or YAML documents.
type streamPrinter struct {
	w      io.Writer
	format output.Format
	first  bool
}

func newStreamPrinter(w io.Writer, f output.Format) *streamPrinter {
	return &streamPrinter{w: w, format: f, first: true}
}

func (p *streamPrinter) print(data any) error {
	defer func() { p.first = false }()

	switch p.format {
	case output.FormatJSON:
		return (&output.JSONFormatter{Compact: true}).Format(p.w, data)
	case output.FormatYAML:
		if _, err := io.WriteString(p.w, "---\n"); err != nil {
			return err
		}
		return (&output.YAMLFormatter{}).Format(p.w, data)
	default:
		return (&output.TableFormatter{NoHeaders: !p.first}).Format(p.w, data)
	}
}
