// Package rpc implements the single-reactor-equivalent TCP front-end
// described in spec.md §4.5/§4.6: per-connection session state, the text
// command protocol, and the command dispatch table.
package rpc

import (
	"sort"
	"strconv"

	"github.com/expobrain/cubedb/internal/cubedb"
	"github.com/expobrain/cubedb/internal/partition"
	"github.com/expobrain/cubedb/internal/protocol"
)

// Result is what a command handler produces: a reply payload and whether
// the session should be closed once it's flushed (only QUIT sets this).
type Result struct {
	Reply []byte
	Quit  bool
}

func reply(b []byte) Result { return Result{Reply: b} }

func errReply(err error) Result {
	if pe, ok := err.(*protocol.Error); ok {
		return reply(protocol.ResultCode(pe.Code))
	}
	return reply(protocol.ResultCode(protocol.ErrActionFailed))
}

// HandlerFunc executes one command against the shared database.
type HandlerFunc func(ctx *Context, args []string) Result

// Command is one entry of the command table (spec.md §4.6).
type Command struct {
	Name        string
	MinArgs     int
	MaxArgs     int
	Description string
	Handler     HandlerFunc
}

// Context is the per-dispatch state a handler needs: the shared
// database, dump configuration, and anything else process-wide. It plays
// the role spec.md §9 describes as "a single context value threaded to
// commands" instead of relying on process-global mutable references.
type Context struct {
	DB       *cubedb.DB
	DumpPath string
	Dump     func(dumpPath string) error
}

// Table is the full command table, keyed by upper-cased verb.
var Table = buildTable()

func buildTable() map[string]*Command {
	cmds := []*Command{
		{"QUIT", 0, 0, "disconnect", cmdQuit},
		{"PING", 0, 0, "reply PONG", cmdPing},
		{"CUBES", 0, 0, "list cube names", cmdCubes},
		{"ADDCUBE", 1, 1, "create a cube", cmdAddCube},
		{"DELCUBE", 1, 1, "delete a cube", cmdDelCube},
		{"CUBE", 1, 1, "list a cube's partition names", cmdCube},
		{"PART", 1, 3, "column->value-set map for a partition range", cmdPart},
		{"DELPART", 2, 3, "delete partitions in a range", cmdDelPart},
		{"INSERT", 4, 4, "insert or increment a row", cmdInsert},
		{"COUNT", 1, 5, "sum counts over a partition range", cmdCount},
		{"PCOUNT", 1, 5, "per-partition counts over a range", cmdPCount},
		{"DUMP", 0, 0, "write the configured dump directory", cmdDump},
		{"HELP", 0, 0, "list commands", nil},
	}
	table := make(map[string]*Command, len(cmds))
	for _, c := range cmds {
		table[c.Name] = c
	}
	table["HELP"].Handler = cmdHelp(table)
	return table
}

func cmdQuit(ctx *Context, args []string) Result {
	return Result{Quit: true}
}

func cmdPing(ctx *Context, args []string) Result {
	return reply(protocol.String("PONG"))
}

func cmdCubes(ctx *Context, args []string) Result {
	return reply(protocol.StringList(ctx.DB.CubeNames()))
}

func cmdAddCube(ctx *Context, args []string) Result {
	if !ctx.DB.AddCube(args[0]) {
		return errReply(protocol.ObjExists)
	}
	return reply(protocol.ResultCode(protocol.OK))
}

func cmdDelCube(ctx *Context, args []string) Result {
	if _, ok := ctx.DB.DeleteCube(args[0]); !ok {
		return errReply(protocol.ObjNotFound)
	}
	return reply(protocol.ResultCode(protocol.OK))
}

func cmdCube(ctx *Context, args []string) Result {
	c, ok := ctx.DB.FindCube(args[0])
	if !ok {
		return errReply(protocol.ObjNotFound)
	}
	return reply(protocol.StringList(c.PartitionNames()))
}

// partitionRange resolves the `[<p> | <from> <to>]`-style trailing
// arguments shared by PART and DELPART into a (from, to) bound pair.
func partitionRange(rest []string) (from, to string) {
	switch len(rest) {
	case 0:
		return "", ""
	case 1:
		return rest[0], rest[0]
	default:
		return rest[0], rest[1]
	}
}

func cmdPart(ctx *Context, args []string) Result {
	c, ok := ctx.DB.FindCube(args[0])
	if !ok {
		return errReply(protocol.ObjNotFound)
	}
	from, to := partitionRange(args[1:])
	return reply(protocol.StrStrSetMap(c.GetColumnsToValueSet(from, to)))
}

func cmdDelPart(ctx *Context, args []string) Result {
	c, ok := ctx.DB.FindCube(args[0])
	if !ok {
		return errReply(protocol.ObjNotFound)
	}
	from, to := partitionRange(args[1:])
	if c.DeletePartitionFromTo(from, to) == 0 {
		return errReply(protocol.ObjNotFound)
	}
	return reply(protocol.ResultCode(protocol.OK))
}

func cmdInsert(ctx *Context, args []string) Result {
	cubeName, partName, cvList, countArg := args[0], args[1], args[2], args[3]

	values, err := protocol.ParseCVListUnique(cvList)
	if err != nil {
		return errReply(err)
	}

	count, err := strconv.ParseUint(countArg, 10, 64)
	if err != nil {
		return errReply(protocol.WrongArg)
	}

	ok := ctx.DB.InsertAutoCreate(cubeName, partName, partition.Row{Values: values, Count: count})
	if !ok {
		return errReply(protocol.ActionFailed)
	}
	return reply(protocol.ResultCode(protocol.OK))
}

// countArgs resolves the shared `[<from> [<to> [<cv-list> [<group>]]]]`
// tail used by COUNT and PCOUNT.
func countArgs(rest []string) (from, to string, filter partition.Filter, group string, err error) {
	get := func(i int) string {
		if i < len(rest) {
			return rest[i]
		}
		return ""
	}
	from, to, cv, group := get(0), get(1), get(2), get(3)
	if protocol.IsNull(group) {
		group = ""
	}

	pairs, err := protocol.ParseCVListFilter(cv)
	if err != nil {
		return "", "", nil, "", err
	}
	for _, p := range pairs {
		filter = append(filter, partition.FilterPair{Column: p.Column, Value: p.Value})
	}

	if protocol.IsNull(from) {
		from = ""
	}
	if protocol.IsNull(to) {
		to = ""
	}
	return from, to, filter, group, nil
}

func cmdCount(ctx *Context, args []string) Result {
	c, ok := ctx.DB.FindCube(args[0])
	if !ok {
		return errReply(protocol.ObjNotFound)
	}
	from, to, filter, group, err := countArgs(args[1:])
	if err != nil {
		return errReply(err)
	}
	if group == "" {
		return reply(protocol.Scalar(c.CountFromTo(from, to, filter, group)))
	}
	return reply(protocol.StrCountMap(c.CountFromToGrouped(from, to, filter, group)))
}

func cmdPCount(ctx *Context, args []string) Result {
	c, ok := ctx.DB.FindCube(args[0])
	if !ok {
		return errReply(protocol.ObjNotFound)
	}
	from, to, filter, group, err := countArgs(args[1:])
	if err != nil {
		return errReply(err)
	}
	if group == "" {
		return reply(protocol.StrCountMap(c.PCountFromTo(from, to, filter)))
	}
	return reply(protocol.StrStrCountMap(c.PCountFromToGrouped(from, to, filter, group)))
}

func cmdDump(ctx *Context, args []string) Result {
	if ctx.DumpPath == "" {
		return errReply(protocol.ConfigurationErr)
	}
	if err := ctx.Dump(ctx.DumpPath); err != nil {
		return errReply(protocol.ActionFailed)
	}
	return reply(protocol.ResultCode(protocol.OK))
}

func cmdHelp(table map[string]*Command) HandlerFunc {
	return func(ctx *Context, args []string) Result {
		names := make([]string, 0, len(table))
		for name := range table {
			names = append(names, name)
		}
		sort.Strings(names)

		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, name+" - "+table[name].Description)
		}
		return reply(protocol.StringList(lines))
	}
}
