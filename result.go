package pichecker

import "time"

// Result is a snapshot of a single command execution
type Result struct {
	Command    string
	Stdout     string
	Stderr     string
	ReturnCode int
	Timestamp  time.Time
}

// Returns true when the command wrote anything to stderr or exited with a non-zero code
func (this Result) IsFailed() bool {
	return this.Stderr != "" || this.ReturnCode != 0
}
