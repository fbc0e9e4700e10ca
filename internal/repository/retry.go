package repository

import (
	"strings"
	"time"
)

// transientRetryBackoff is the fixed pause before the single retry of an
// apply-phase write that hit lock contention.
const transientRetryBackoff = 100 * time.Millisecond

// isTransientErr reports whether a storage error is worth one retry: lock
// conflicts and deadlocks from concurrent import runs.
func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"deadlock", "lock", "busy", "timeout", "conflict"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withTransientRetry runs op, retrying exactly once after a short fixed
// backoff when the failure looks transient.
func withTransientRetry(op func() error) error {
	err := op()
	if err != nil && isTransientErr(err) {
		time.Sleep(transientRetryBackoff)
		err = op()
	}
	return err
}
