// Package nqe is an in-process actor runtime: processes with mailboxes,
// links, monitors, and a terminal status, plus a Supervisor that ignores,
// reports, or tears down a dynamic set of children according to a pluggable
// strategy. No strategy restarts a terminated child.
//
// A Process is started with StartProcess or WithProcess and communicates
// only through Send, Receive/ReceiveMatch, Dispatch, and Query/Respond —
// there is no shared state between processes beyond what a caller chooses
// to pass through a message.
package nqe
