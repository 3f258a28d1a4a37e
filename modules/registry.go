// Package modules resolves import statements to module records.
//
// A module is either native, backed by an Installer that fills a fresh
// record with functions, or a script file "name.em" (or a serialized
// program "name.emp") run in its own Process whose globals become the
// module record.
//
// Module records live in the store of the importing process tree, so
// the loaded-module cache is kept per store. Parsed programs are shared
// across stores.
package modules

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ember/db"
	"ember/parser"
	"ember/types"
	"ember/vm"
)

const (
	// SourceExt is the extension of script modules
	SourceExt = ".em"
	// ProgramExt is the extension of serialized program modules
	ProgramExt = ".emp"
)

// Registry implements vm.ModuleLoader
type Registry struct {
	importPaths []string

	mu       sync.Mutex
	natives  map[string]vm.Installer
	programs map[string]cachedProgram
	stores   map[*db.Store]*storeModules
}

type cachedProgram struct {
	prog    *parser.Program
	modTime time.Time
}

// storeModules is the module state of one process tree
type storeModules struct {
	loaded  map[string]types.RecordID
	loading []string
}

// NewRegistry creates a registry searching importPaths after the
// importing file's directory and the process's working path
func NewRegistry(importPaths ...string) *Registry {
	return &Registry{
		importPaths: importPaths,
		natives:     make(map[string]vm.Installer),
		programs:    make(map[string]cachedProgram),
		stores:      make(map[*db.Store]*storeModules),
	}
}

// RegisterNative makes name importable as a record filled by inst
func (r *Registry) RegisterNative(name string, inst vm.Installer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.natives[name] = inst
}

// ImportPaths returns the configured search path
func (r *Registry) ImportPaths() []string {
	return r.importPaths
}

// Import returns the module record for name in p's store, loading it on
// first use. origin is the source of the importing program.
func (r *Registry) Import(p *vm.Process, name, origin string) (types.RecordID, error) {
	store := p.Store()
	mods := r.modulesOf(store)

	if id, ok := r.cached(mods, name); ok {
		return id, nil
	}

	if inst := r.native(name); inst != nil {
		rec := store.New(name)
		inst.Install(rec)
		r.commit(store, mods, name, rec)
		return rec.ID, nil
	}

	path, err := r.resolve(name, origin, p.WorkingPath())
	if err != nil {
		return types.NoRecord, err
	}
	key := path
	for _, loading := range mods.loading {
		if loading == key {
			return types.NoRecord, types.NewError(types.E_IMPORT, "import cycle detected: %s", cyclePath(mods.loading, key))
		}
	}
	mods.loading = append(mods.loading, key)
	defer func() { mods.loading = mods.loading[:len(mods.loading)-1] }()

	prog, err := r.program(path)
	if err != nil {
		return types.NoRecord, err
	}
	id, err := r.run(p, name, path, prog)
	if err != nil {
		return types.NoRecord, err
	}
	r.commit(store, mods, name, store.Get(id))
	log.Printf("Module %s loaded from %s", name, path)
	return id, nil
}

func (r *Registry) modulesOf(store *db.Store) *storeModules {
	r.mu.Lock()
	defer r.mu.Unlock()
	mods, ok := r.stores[store]
	if !ok {
		mods = &storeModules{loaded: make(map[string]types.RecordID)}
		r.stores[store] = mods
	}
	return mods
}

func (r *Registry) cached(mods *storeModules, name string) (types.RecordID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := mods.loaded[name]
	return id, ok
}

func (r *Registry) native(name string) vm.Installer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.natives[name]
}

// commit caches a loaded module until its record is deleted
func (r *Registry) commit(store *db.Store, mods *storeModules, name string, rec *db.Record) {
	r.mu.Lock()
	mods.loaded[name] = rec.ID
	r.mu.Unlock()
	rec.Observe(&eviction{registry: r, store: store, name: name})
}

// eviction drops a module from the cache when its record goes away
type eviction struct {
	registry *Registry
	store    *db.Store
	name     string
}

func (e *eviction) RecordDeleted(id types.RecordID) {
	r := e.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	if mods, ok := r.stores[e.store]; ok && mods.loaded[e.name] == id {
		delete(mods.loaded, e.name)
	}
}

// Forget drops all modules loaded into store, for hosts that discard a
// process tree
func (r *Registry) Forget(store *db.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, store)
}

// resolve finds the file for a module name: next to the importing file,
// then in the working path, then in each import path
func (r *Registry) resolve(name, origin, workingPath string) (string, error) {
	var bases []string
	if origin != "" {
		if fi, err := os.Stat(origin); err == nil && !fi.IsDir() {
			bases = append(bases, filepath.Dir(origin))
		}
	}
	if workingPath != "" {
		bases = append(bases, workingPath)
	}
	bases = append(bases, r.importPaths...)

	for _, base := range bases {
		for _, ext := range []string{SourceExt, ProgramExt} {
			candidate := filepath.Join(base, name+ext)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				abs, err := filepath.Abs(candidate)
				if err != nil {
					return "", fmt.Errorf("resolve %s: %w", candidate, err)
				}
				return filepath.Clean(abs), nil
			}
		}
	}
	return "", types.NewError(types.E_IMPORT, "module %s not found", name)
}

// program parses or reads a module file, reusing the parse while the
// file is unchanged
func (r *Registry) program(path string) (*parser.Program, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, types.NewError(types.E_IMPORT, "module %s: %v", path, err)
	}

	r.mu.Lock()
	cp, ok := r.programs[path]
	r.mu.Unlock()
	if ok && cp.modTime.Equal(fi.ModTime()) {
		return cp.prog, nil
	}

	var prog *parser.Program
	if filepath.Ext(path) == ProgramExt {
		prog, err = db.LoadProgram(path)
	} else {
		var src []byte
		src, err = os.ReadFile(path)
		if err == nil {
			prog, err = parser.ParseString(string(src), path)
		}
	}
	if err != nil {
		return nil, types.NewError(types.E_IMPORT, "load module %s: %v", path, err)
	}
	if prog.Source == "" {
		prog.Source = path
	}

	r.mu.Lock()
	r.programs[path] = cachedProgram{prog: prog, modTime: fi.ModTime()}
	r.mu.Unlock()
	return prog, nil
}

// run executes a module program in a process spawned from p. A module
// that suspends itself is resumed; loading always runs to the end.
func (r *Registry) run(p *vm.Process, name, path string, prog *parser.Program) (types.RecordID, error) {
	child := p.Spawn()
	child.SetWorkingPath(filepath.Dir(path))
	globals := p.Store().Get(child.Globals())
	globals.Name = name

	fail := func(err error) (types.RecordID, error) {
		p.Store().Delete(globals.ID)
		return types.NoRecord, err
	}
	if err := child.Run(prog); err != nil {
		return fail(err)
	}
	for {
		if err := child.Execute(); err != nil {
			if errors.Is(err, types.Kind(types.E_HANG)) {
				return fail(err)
			}
			return fail(types.NewError(types.E_IMPORT, "module %s: %v", name, err))
		}
		if child.State() != vm.SUSPENDED {
			break
		}
		child.Suspend(false)
	}
	return globals.ID, nil
}

func cyclePath(stack []string, again string) string {
	i := 0
	for idx, s := range stack {
		if s == again {
			i = idx
			break
		}
	}
	chain := append(append([]string(nil), stack[i:]...), again)
	for k, s := range chain {
		chain[k] = strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
	}
	return strings.Join(chain, " -> ")
}
