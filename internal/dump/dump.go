// Package dump implements the flat-file, replay-based persistence
// described in SPEC_FULL.md's expansion of spec.md §7: cubedb has no
// write-ahead log or binary snapshot, so durability is "replay the
// INSERT statements that produced this state," one *.cdb file per cube.
package dump

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/expobrain/cubedb/internal/cube"
	"github.com/expobrain/cubedb/internal/cubedb"
	"github.com/expobrain/cubedb/internal/partition"
	"github.com/expobrain/cubedb/internal/protocol"
)

const fileSuffix = ".cdb"

// Write serializes every cube in db into dir as one <cube>.cdb file per
// cube, each line a replayable `INSERT <cube> <partition> <cv-list>
// <count>` statement (spec.md §9's "dump format is just INSERT replay"
// resolution).
func Write(db *cubedb.DB, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dump: create %s: %w", dir, err)
	}

	var writeErr error
	db.ForEachCube(func(cubeName string, c *cube.Cube) {
		if writeErr != nil {
			return
		}
		writeErr = writeCubeFile(dir, cubeName, c)
	})
	return writeErr
}

func writeCubeFile(dir, cubeName string, c *cube.Cube) error {
	path := filepath.Join(dir, cubeName+fileSuffix)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var rowErr error
	c.ForEachPartition(func(partName string, p *partition.Partition) {
		if rowErr != nil {
			return
		}
		p.ForEachRow(func(values map[string]string, count uint64) {
			if rowErr != nil {
				return
			}
			line := fmt.Sprintf("INSERT %s %s %s %d\n",
				protocol.Quote(cubeName), protocol.Quote(partName),
				protocol.FormatCVList(values), count)
			if _, err := w.WriteString(line); err != nil {
				rowErr = fmt.Errorf("dump: write %s: %w", path, err)
			}
		})
	})
	if rowErr != nil {
		return rowErr
	}
	return w.Flush()
}

// Load replays every *.cdb file found anywhere under dir (walked
// recursively, like the original's nftw()-based scan), in lexicographic
// path order, inserting each line's row straight into db. A malformed
// line is logged and skipped rather than aborting the whole load, so a
// single corrupted dump file can't lose every cube's data; an I/O
// failure opening or reading a file is returned to the caller, which
// SPEC_FULL.md classifies as fatal at startup.
func Load(db *cubedb.DB, dir string, log *slog.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), fileSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("dump: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := loadFile(db, path, log); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(db *cubedb.DB, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dump: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := replayInsert(db, line); err != nil {
			log.Warn("skipping malformed dump line", "file", path, "line", lineNum, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dump: read %s: %w", path, err)
	}
	return nil
}

func replayInsert(db *cubedb.DB, line string) error {
	args, err := protocol.Tokenize(line)
	if err != nil {
		return err
	}
	if len(args) != 5 || strings.ToUpper(args[0]) != "INSERT" {
		return fmt.Errorf("not an INSERT line")
	}

	cubeName, partName, cvList, countArg := args[1], args[2], args[3], args[4]
	values, err := protocol.ParseCVListUnique(cvList)
	if err != nil {
		return err
	}
	count, err := strconv.ParseUint(countArg, 10, 64)
	if err != nil {
		return fmt.Errorf("bad count %q: %w", countArg, err)
	}

	if !db.InsertAutoCreate(cubeName, partName, partition.Row{Values: values, Count: count}) {
		return fmt.Errorf("insert failed (dictionary overflow)")
	}
	return nil
}
