package nqe

import "github.com/hashicorp/go-multierror"

// multierrAppend accumulates err onto acc using hashicorp/go-multierror,
// the way krew-solutions-ascetic-ddd-go's dependency stack aggregates
// domain errors, instead of keeping only the first and dropping the rest
// (spec.md §4.5: a supervisor can legitimately see more than one child
// fail before it finishes cancelling the others).
func multierrAppend(acc error, err error) error {
	if err == nil {
		return acc
	}
	return multierror.Append(acc, err)
}
