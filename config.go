package nqe

import "time"

// Config carries the runtime tunables spec.md §6 keeps out of environment
// variables, CLI flags, or persisted state: everything is passed explicitly
// through StartProcess/NewSupervisor options, the way utils.Config is built
// and threaded through lguibr-pongo's game construction rather than read
// from the environment.
type Config struct {
	// MailboxWarnSize is the backlog length at which a Process logs a single
	// warning that messages are piling up faster than they're consumed. Zero
	// disables the check.
	MailboxWarnSize int

	// QueryTimeout bounds how long Query waits for a reply before the
	// querying Process receives a QueryTimeoutError. Zero disables the bound.
	QueryTimeout time.Duration
}

// DefaultConfig returns the tunables every Process and Supervisor uses
// unless overridden with WithConfig.
func DefaultConfig() Config {
	return Config{
		MailboxWarnSize: 1000,
		QueryTimeout:    5 * time.Second,
	}
}

// WithConfig overrides the Config a Process is started with.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}
