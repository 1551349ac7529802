package settings

import "fmt"

// PersistenceError reports a failed read or write of one storage key.
// The in-memory value is never rolled back because of it.
type PersistenceError struct {
	Op  string // "read" or "write"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settings %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
