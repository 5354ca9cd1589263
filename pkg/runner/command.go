package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/bifrost/pkg/domain"
)

// CommandKind identifies a runner command.
type CommandKind int

const (
	CommandInsert CommandKind = iota
	CommandEvaluate
	CommandDelete
	CommandClear
	CommandReset
	CommandCaret
	CommandSelect
	CommandHistory
	CommandState
	CommandHelp
	CommandQuit
)

// ErrBadArguments is returned when a command has missing or non-numeric arguments.
var ErrBadArguments = errors.New("bad command arguments")

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	// Tokens are inserted in order for CommandInsert.
	Tokens []domain.TokenID
	// Evaluate is set when an insert line ends with "=".
	Evaluate bool
	Args     []int
}

// Help describes the commands accepted by ParseCommand.
const Help = `Keys are separated by spaces: 0-9 . () + - * / % x^y sin cos tan log ln sqrt pi ans
Digits may be grouped ("12.5"). A trailing "=" evaluates after inserting.
Commands:
  =, eval            evaluate the expression
  del, <             delete the selection or the character before the caret
  clear              clear the expression and the history
  reset              clear everything, including the last result
  caret N            move the caret
  select START LEN   select a range
  hist N             insert the result of history entry N (0 is the latest)
  state              show the expression and the history
  help               show this help
  quit, exit         leave`

var keywords = map[string]CommandKind{
	"=":      CommandEvaluate,
	"eval":   CommandEvaluate,
	"del":    CommandDelete,
	"<":      CommandDelete,
	"clear":  CommandClear,
	"reset":  CommandReset,
	"caret":  CommandCaret,
	"select": CommandSelect,
	"hist":   CommandHistory,
	"state":  CommandState,
	"help":   CommandHelp,
	"?":      CommandHelp,
	"quit":   CommandQuit,
	"exit":   CommandQuit,
}

var arity = map[CommandKind]int{
	CommandCaret:   1,
	CommandSelect:  2,
	CommandHistory: 1,
}

// ParseCommand parses one input line. An empty line is a CommandState.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CommandState}, nil
	}

	if kind, ok := keywords[strings.ToLower(fields[0])]; ok && (len(fields) == 1 || arity[kind] > 0) {
		cmd := Command{Kind: kind}
		if len(fields)-1 != arity[kind] {
			return Command{}, fmt.Errorf("%w: %s takes %d argument(s)", ErrBadArguments, fields[0], arity[kind])
		}
		for _, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return Command{}, fmt.Errorf("%w: %q is not a number", ErrBadArguments, f)
			}
			cmd.Args = append(cmd.Args, n)
		}
		return cmd, nil
	}

	cmd := Command{Kind: CommandInsert}
	if fields[len(fields)-1] == "=" {
		cmd.Evaluate = true
		fields = fields[:len(fields)-1]
	}
	for _, f := range fields {
		ids, err := parseKeys(f)
		if err != nil {
			return Command{}, err
		}
		cmd.Tokens = append(cmd.Tokens, ids...)
	}
	return cmd, nil
}

// parseKeys resolves a single label, or a group of digits and dots key by key.
func parseKeys(field string) ([]domain.TokenID, error) {
	if id, err := domain.ParseToken(field); err == nil {
		return []domain.TokenID{id}, nil
	}
	ids := make([]domain.TokenID, 0, len(field))
	for _, r := range field {
		if !unicode.IsDigit(r) && r != '.' {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownToken, field)
		}
		id, err := domain.ParseToken(string(r))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
