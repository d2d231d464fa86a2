package rpc

import (
	"strings"

	"github.com/expobrain/cubedb/internal/protocol"
)

// Dispatch runs one request line end to end: tokenize, check
// printability, look up the command, validate arity, and execute the
// handler. This mirrors process_cmd's ordering in the original C server
// (tokenizer failures and printability failures are distinct, reported
// before the command name is even looked at). An empty query (a blank
// line, or one that tokenizes to no arguments at all) is silently
// ignored rather than replied to, matching the original server's
// "ignore empty query" handling ahead of process_cmd.
func Dispatch(ctx *Context, line string) Result {
	args, err := protocol.Tokenize(line)
	if err != nil {
		return errReply(err)
	}
	if len(args) == 0 {
		return Result{}
	}
	if err := protocol.CheckPrintable(args); err != nil {
		return errReply(err)
	}

	name := strings.ToUpper(args[0])
	cmd, ok := Table[name]
	if !ok {
		return errReply(protocol.NotFound)
	}

	rest := args[1:]
	if len(rest) < cmd.MinArgs || len(rest) > cmd.MaxArgs {
		return errReply(protocol.WrongArgNum)
	}

	return cmd.Handler(ctx, rest)
}
