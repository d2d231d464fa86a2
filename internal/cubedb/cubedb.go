// Package cubedb implements the top-level mapping cube-name -> cube
// described in spec.md §4.4.
//
// DB is a plain, non-thread-safe structure, mirroring the original C
// implementation's model (spec.md §5: "the cubedb ... [is] mutated only
// from the reactor thread"). Concurrency control lives entirely in
// internal/rpc, which serializes every command behind one mutex before
// it ever touches a DB, Cube, or Partition — see SPEC_FULL.md §5's Go
// translation note.
package cubedb

import (
	"sort"

	"github.com/expobrain/cubedb/internal/cube"
	"github.com/expobrain/cubedb/internal/partition"
)

// DB is the process-wide collection of cubes.
type DB struct {
	cubes map[string]*cube.Cube
}

// New returns an empty database.
func New() *DB {
	return &DB{cubes: make(map[string]*cube.Cube)}
}

// AddCube explicitly creates a cube. It fails if the cube already exists.
func (db *DB) AddCube(name string) bool {
	if _, ok := db.cubes[name]; ok {
		return false
	}
	db.cubes[name] = cube.New()
	return true
}

// DeleteCube removes a cube, returning it so ownership transfer is
// explicit (spec.md §9's "make ownership transfer explicit" note). It
// fails if the cube doesn't exist.
func (db *DB) DeleteCube(name string) (*cube.Cube, bool) {
	c, ok := db.cubes[name]
	if !ok {
		return nil, false
	}
	delete(db.cubes, name)
	return c, true
}

// FindCube returns the named cube without creating it.
func (db *DB) FindCube(name string) (*cube.Cube, bool) {
	c, ok := db.cubes[name]
	return c, ok
}

// CubeNames returns every cube name, sorted for stable CUBES replies.
func (db *DB) CubeNames() []string {
	names := make([]string, 0, len(db.cubes))
	for name := range db.cubes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForEachCube visits every cube, sorted by name.
func (db *DB) ForEachCube(visit func(name string, c *cube.Cube)) {
	for _, name := range db.CubeNames() {
		visit(name, db.cubes[name])
	}
}

// InsertAutoCreate inserts row into cubeName/partitionName, auto-creating
// the cube if it doesn't exist yet, per spec.md §4.4.
func (db *DB) InsertAutoCreate(cubeName, partitionName string, row partition.Row) bool {
	c, ok := db.cubes[cubeName]
	if !ok {
		c = cube.New()
		db.cubes[cubeName] = c
	}
	return c.Insert(partitionName, row)
}
