package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/protocol"
)

// Result is the outcome of one key command. Found reports whether the
// server answered: for create it means an existing value was replaced, and
// Value is then the replaced value.
type Result struct {
	Command string `json:"command" yaml:"command"`
	Key     string `json:"key" yaml:"key"`
	Found   bool   `json:"found" yaml:"found"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`

	raw protocol.Value
}

// Table implements output.Tabler.
func (r Result) Table() *output.Table {
	t := &output.Table{Headers: []string{"COMMAND", "KEY", "FOUND", "VALUE"}}
	val := "-"
	if r.Found {
		val = r.raw.String()
	}
	t.AddRow(r.Command, r.Key, strconv.FormatBool(r.Found), val)
	return t
}

func valueFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "int",
			Usage: "send VALUE as an integer",
		},
		&cli.BoolFlag{
			Name:  "array",
			Usage: "send VALUE as a comma-separated array of text",
		},
	}
}

// CreateCommand returns the create command.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Store a value, replacing any existing one",
		ArgsUsage: "KEY VALUE",
		Flags:     valueFlags(),
		Action:    writeAction(protocol.CmdCreate),
	}
}

// UpdateCommand returns the update command.
func UpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace the value of an existing key and notify subscribers",
		ArgsUsage: "KEY VALUE",
		Flags:     valueFlags(),
		Action:    writeAction(protocol.CmdUpdate),
	}
}

// ReadCommand returns the read command.
func ReadCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Aliases:   []string{"get"},
		Usage:     "Print the value stored under a key",
		ArgsUsage: "KEY",
		Action:    keyAction(protocol.CmdRead),
	}
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"del"},
		Usage:     "Remove a key",
		ArgsUsage: "KEY",
		Action:    keyAction(protocol.CmdDelete),
	}
}

func writeAction(kind protocol.CommandKind) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("%s requires KEY and VALUE", strings.ToLower(kind.String()))
		}
		key := c.Args().Get(0)
		if err := validateKey(key); err != nil {
			return err
		}
		val, err := parseValue(c.Args().Get(1), c.Bool("int"), c.Bool("array"))
		if err != nil {
			return err
		}
		return run(c, protocol.Command{Kind: kind, Key: key, Value: val})
	}
}

func keyAction(kind protocol.CommandKind) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%s requires KEY", strings.ToLower(kind.String()))
		}
		key := c.Args().First()
		if err := validateKey(key); err != nil {
			return err
		}
		return run(c, protocol.Command{Kind: kind, Key: key})
	}
}

func run(c *cli.Context, cmd protocol.Command) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	values, err := client.Exec(ctxOf(c), cmd)
	if err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(cmd.Kind.String()), cmd.Key, err)
	}

	res := Result{Command: strings.ToLower(cmd.Kind.String()), Key: cmd.Key}
	if len(values) > 0 {
		res.Found = true
		res.raw = values[0]
		res.Value = values[0].Native()
	}
	return render(c, res)
}

// validateKey rejects keys the server would refuse to parse.
func validateKey(key string) error {
	switch {
	case key == "":
		return errors.New("key must not be empty")
	case !utf8.ValidString(key):
		return errors.New("key must be valid UTF-8")
	case protocol.IsKeyword(key):
		return fmt.Errorf("key %q is a reserved keyword", key)
	}
	return nil
}

func parseValue(raw string, asInt, asArray bool) (protocol.Value, error) {
	switch {
	case asInt && asArray:
		return protocol.Value{}, errors.New("--int and --array are mutually exclusive")
	case asInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("invalid integer %q", raw)
		}
		return protocol.Integer(n), nil
	case asArray:
		if raw == "" {
			return protocol.Array(), nil
		}
		parts := strings.Split(raw, ",")
		items := make([]protocol.Value, len(parts))
		for i, p := range parts {
			if protocol.IsKeyword(p) {
				return protocol.Value{}, keywordValueError(p)
			}
			items[i] = protocol.Text(p)
		}
		return protocol.Array(items...), nil
	default:
		if protocol.IsKeyword(raw) {
			return protocol.Value{}, keywordValueError(raw)
		}
		return protocol.Text(raw), nil
	}
}

// Keywords in value position decode as null on the server.
func keywordValueError(s string) error {
	return fmt.Errorf("value %q is a reserved keyword", s)
}
