package nqe

import "github.com/pkg/errors"

// Action is the body a spawned Process runs. It receives its own handle so
// it can Send, Receive, Link, Monitor, and so on against itself and others.
// Its return value becomes the Process's terminal status.
type Action func(self *Process) error

// options configures StartProcess / WithProcess.
type options struct {
	host    Host
	logger  Logger
	depends []string
	config  Config
}

// Option customizes a spawned Process.
type Option func(*options)

// WithHost overrides the Host a Process is spawned through. Tests use this
// to substitute a deterministic fake.
func WithHost(h Host) Option {
	return func(o *options) { o.host = h }
}

// WithLogger overrides a Process's logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// DependsOn names other registered processes (see Register in names.go)
// that must already be running when this Process starts. It is the
// optional layer spec.md §9's Open Question describes, built above the
// registry rather than inside the spec's required core.
func DependsOn(names ...string) Option {
	return func(o *options) { o.depends = append(o.depends, names...) }
}

func buildOptions(opts []Option) *options {
	o := &options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StartProcess implements the spawn protocol of spec.md §4.4: a one-shot
// rendezvous cell is filled, in one transaction, with a freshly-created
// Process bound to the activity's id, inserted into the registry, only
// after which the activity is allowed to start running action. A too-early
// panic therefore always has a Process to clean up after it.
func StartProcess(action Action, opts ...Option) (*Process, error) {
	if action == nil {
		return nil, errors.New("nqe: action must not be nil")
	}
	o := buildOptions(opts)
	host := o.host
	if host == nil {
		host = DefaultHost
	}

	if len(o.depends) > 0 {
		if err := awaitDependencies(o.depends); err != nil {
			return nil, err
		}
	}

	ready := make(chan *Process, 1)
	id := host.Spawn(func(ActivityID) {
		self := <-ready
		var result error
		defer func() {
			if r := recover(); r != nil {
				result = errors.Errorf("%s: panic: %v", self, r)
			}
			self.die(result)
		}()
		result = action(self)
	})

	p := newProcess(id, host, o.logger, o.config)
	globalRegistry.insert(p)
	ready <- p
	return p, nil
}

// WithProcess is the scoped variant from spec.md §4.4: it starts action,
// runs body against the child, and on any exit from body — normal,
// erroring, or the surrounding goroutine being cancelled — delivers
// DependentActionEndedError to the child and waits for it to terminate
// before returning. This guarantees the child never outlives the scope.
func WithProcess(body func(child *Process) error, action Action, opts ...Option) error {
	child, err := StartProcess(action, opts...)
	if err != nil {
		return err
	}
	defer func() {
		child.host.Deliver(child, &DependentActionEndedError{})
		Wait(child)
	}()
	return body(child)
}
