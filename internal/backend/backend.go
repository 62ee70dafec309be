// Package backend defines the emitter interface the compiler core hands its
// IR to, and a registry the CLI selects targets from. Emitters are pure
// byte producers; writing files is the caller's business.
package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/corrosion-lang/corrosion/internal/ir"
)

// Emitter turns one lowered module into target source text.
type Emitter interface {
	// Target is the name used on the command line (--emit=<target>).
	Target() string

	// FileExt is the extension of the emitted artifact, dot included.
	FileExt() string

	// Emit renders the module. The module has already been validated.
	Emit(m *ir.Module) ([]byte, error)
}

var (
	mu       sync.RWMutex
	emitters = map[string]Emitter{}
)

// Register makes an emitter selectable by target name. Emitter packages
// call it from init; registering a duplicate target panics.
func Register(e Emitter) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := emitters[e.Target()]; dup {
		panic(fmt.Sprintf("backend: duplicate emitter %q", e.Target()))
	}
	emitters[e.Target()] = e
}

// Lookup returns the emitter registered for target.
func Lookup(target string) (Emitter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := emitters[target]
	return e, ok
}

// Targets lists registered target names, sorted.
func Targets() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(emitters))
	for name := range emitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
