package nqe

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// DependencyNotFoundError reports that no process was ever registered under
// a name a dependent process required.
type DependencyNotFoundError struct{ Name string }

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("nqe: dependency %q not found", e.Name)
}

// DependencyNotRunningError reports that a named process was found but had
// already terminated.
type DependencyNotRunningError struct{ Name string }

func (e *DependencyNotRunningError) Error() string {
	return fmt.Sprintf("nqe: dependency %q is not running", e.Name)
}

// nameTable is the optional layer spec.md §9's Open Question describes: a
// symbolic name to Process mapping, independent of the registry's
// activity-id keying, used only to gate StartProcess's DependsOn option. It
// adds no hard engineering beyond a lookup, exactly as the spec says.
type nameTable struct {
	mu     sync.Mutex
	byName map[string]*Process
}

var names = &nameTable{byName: make(map[string]*Process)}

// Register binds name to p. A later Register under the same name replaces
// the binding (e.g. after a supervised restart).
func Register(name string, p *Process) {
	names.mu.Lock()
	names.byName[name] = p
	names.mu.Unlock()
}

// Unregister removes name's binding, if any.
func Unregister(name string) {
	names.mu.Lock()
	delete(names.byName, name)
	names.mu.Unlock()
}

// Lookup returns the Process registered under name, if any.
func Lookup(name string) (*Process, bool) {
	names.mu.Lock()
	defer names.mu.Unlock()
	p, ok := names.byName[name]
	return p, ok
}

func awaitDependencies(deps []string) error {
	var result error
	for _, dep := range deps {
		p, ok := Lookup(dep)
		if !ok {
			result = multierrAppend(result, errors.WithStack(&DependencyNotFoundError{Name: dep}))
			continue
		}
		if !p.IsRunning() {
			result = multierrAppend(result, errors.WithStack(&DependencyNotRunningError{Name: dep}))
		}
	}
	return result
}
