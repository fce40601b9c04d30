package pichecker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FailureKind tells which stage of a probe run produced the failure
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNoResult
	FailureProcess
	FailureValidation
	FailureUnexpected
)

func (this FailureKind) String() string {
	switch this {
	case FailureNone:
		return "none"
	case FailureNoResult:
		return "no_result"
	case FailureProcess:
		return "process"
	case FailureValidation:
		return "validation"
	case FailureUnexpected:
		return "unexpected"
	default:
		return ""
	}
}

func (this FailureKind) MarshalText() ([]byte, error) {
	return []byte(this.String()), nil
}

// Probe runs a single check and keeps the outcome of the latest run.
// A probe must not be run concurrently with itself; the scheduler creates
// fresh probes for every tick
type Probe struct {
	Check    Check
	Executor Executor

	Result       *Result
	IsSuccess    bool
	ErrorMessage *string
	Failure      FailureKind
	Elapsed      time.Duration
}

func NewProbe(check Check) *Probe {
	return &Probe{Check: check, Executor: &ShellExecutor{}}
}

func NewBaseProbe(command string) *Probe {
	return NewProbe(BaseCheck(command))
}

func NewTemperatureProbe() *Probe {
	return NewProbe(TemperatureCheck)
}

func NewVoltageProbe() *Probe {
	return NewProbe(VoltageCheck)
}

func NewDiskUsageProbe() *Probe {
	return NewProbe(DiskUsageCheck)
}

func (this *Probe) Label() string {
	return this.Check.Label
}

// Run executes the check command and judges its output.
// It never fails: the outcome is reported through IsSuccess, ErrorMessage and Failure
func (this *Probe) Run(ctx context.Context) {

	this.Result = nil
	this.IsSuccess = false
	this.ErrorMessage = nil
	this.Failure = FailureNone

	started := time.Now()

	defer func() {

		if rec := recover(); rec != nil {
			this.fail(FailureUnexpected, fmt.Sprintf("Can't process or validate command: %v", rec))
		}

		this.Elapsed = time.Since(started)
	}()

	if kind, message := this.run(ctx); kind != FailureNone {
		this.fail(kind, message)
		return
	}

	this.IsSuccess = true
}

func (this *Probe) run(ctx context.Context) (FailureKind, string) {

	executor := this.Executor
	if executor == nil {
		executor = &ShellExecutor{}
	}

	result, err := executor.Execute(ctx, this.Check.Command)
	if err != nil {
		return FailureUnexpected, "Can't process or validate command: " + err.Error()
	}

	this.Result = result

	if result == nil {
		return FailureNoResult, "Result is None"
	}

	//	a failed process is never judged by its stdout
	if result.IsFailed() {
		return FailureProcess, "Error while execute command: " + result.Stderr
	}

	validate := this.Check.Validate
	if validate == nil {
		validate = validateNotEmpty
	}

	err = validate(result.Stdout)

	var validationErr *ValidationError

	switch {
	case err == nil:
		return FailureNone, ""
	case errors.As(err, &validationErr):
		return FailureValidation, validationErr.Message
	default:
		return FailureUnexpected, "Can't process or validate command: " + err.Error()
	}
}

func (this *Probe) fail(kind FailureKind, message string) {
	this.IsSuccess = false
	this.ErrorMessage = &message
	this.Failure = kind
}

// Entry converts the latest run outcome into a writer entry
func (this *Probe) Entry(tickID string) StatusEntry {

	entry := StatusEntry{
		TickID:    tickID,
		Label:     this.Check.Label,
		Command:   this.Check.Command,
		Up:        this.IsSuccess,
		Failure:   this.Failure,
		Message:   this.ErrorMessage,
		Elapsed:   this.Elapsed,
		Timestamp: time.Now(),
	}

	if this.Result != nil {
		code := this.Result.ReturnCode
		entry.ReturnCode = &code
		entry.Timestamp = this.Result.Timestamp
	}

	return entry
}
