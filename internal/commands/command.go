// Package commands parses and dispatches the TUI palette commands.
package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeEdit   Type = "edit"
	TypeDone   Type = "done"
	TypeDelete Type = "del"
	TypeMove   Type = "move"
	TypeAI     Type = "ai"
	TypeSync   Type = "sync"
	TypeHelp   Type = "help"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs carries a new task; "add pay rent: before the 1st" splits the
// part after ": " into the description.
type AddArgs struct {
	Title       string
	Description string
}

type EditArgs struct {
	Index       int
	Title       string
	Description string
}

type DoneArgs struct {
	Index int
}

type DeleteArgs struct {
	Index int
}

type MoveArgs struct {
	From int
	To   int
}

type AIArgs struct {
	Text string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Edit   *EditArgs
	Done   *DoneArgs
	Delete *DeleteArgs
	Move   *MoveArgs
	AI     *AIArgs
}

// Parse turns one palette line into a Command. Indexes are the 1-based
// positions shown in the list view.
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeAI:
		return parseAI(input, args)
	case TypeSync:
		return Command{Type: TypeSync, Raw: input}, nil
	case TypeHelp:
		return Command{Type: TypeHelp, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	title, desc := splitTitle(strings.Join(args, " "))
	if title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: title, Description: desc}}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "edit requires an index and a title"}
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return Command{}, err
	}
	title, desc := splitTitle(strings.Join(args[1:], " "))
	if title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "edit requires a title"}
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Index: index, Title: title, Description: desc}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires an index"}
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Index: index}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "del requires an index"}
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Index: index}}, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "move requires two indexes"}
	}
	from, err := parseIndex(args[0])
	if err != nil {
		return Command{}, err
	}
	to, err := parseIndex(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{From: from, To: to}}, nil
}

func parseAI(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "ai requires text to extract from"}
	}
	return Command{Type: TypeAI, Raw: raw, AI: &AIArgs{Text: strings.Join(args, " ")}}, nil
}

func parseIndex(arg string) (int, *CommandError) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("not a list position: %s", arg)}
	}
	return n, nil
}

func splitTitle(text string) (title, description string) {
	title = strings.TrimSpace(text)
	if head, tail, found := strings.Cut(title, ": "); found && head != "" {
		return head, strings.TrimSpace(tail)
	}
	return title, ""
}
