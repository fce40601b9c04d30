package pichecker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Check describes what a probe runs and how its output is judged.
// Validate returns nil for healthy output, a *ValidationError when the output
// is readable but not acceptable, and any other error when judging itself failed
type Check struct {
	Label    string
	Command  string
	Validate func(stdout string) error
}

type ValidationError struct {
	Message string
}

func (this *ValidationError) Error() string {
	return this.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const (
	CheckLabelBase        = "base"
	CheckLabelTemperature = "temperature"
	CheckLabelVoltage     = "voltage"
	CheckLabelDiskUsage   = "disk_usage"
)

var TemperatureCheck = Check{
	Label:   CheckLabelTemperature,
	Command: "vcgencmd measure_temp",
	Validate: thresholdRule{
		pattern:   regexp.MustCompile(`temp\=(\d+?\.\d+?).*?`),
		format:    func(_ string, val float64) string { return formatDecimal(val) },
		healthy:   func(val float64) bool { return val < 60.0 },
		noMatch:   "Can't get measure temperature",
		unhealthy: "Measure temperature is too high: %s",
	}.validate,
}

var VoltageCheck = Check{
	Label:   CheckLabelVoltage,
	Command: "vcgencmd measure_volts",
	Validate: thresholdRule{
		pattern:   regexp.MustCompile(`volt\=(\d+?\.\d+?)V`),
		format:    func(_ string, val float64) string { return formatDecimal(val) },
		healthy:   func(val float64) bool { return val > 0.8 && val < 1.35 },
		noMatch:   "Can't get measure voltage",
		unhealthy: "Measure voltage incorrect: %s. Should be of 0.8V to 1.35V",
	}.validate,
}

// Only the /dev/root device is recognized as the root filesystem
var DiskUsageCheck = Check{
	Label:   CheckLabelDiskUsage,
	Command: "df -h",
	Validate: thresholdRule{
		pattern:   regexp.MustCompile(`\/dev\/root.*?(\d+)%.*?\/`),
		format:    func(token string, _ float64) string { return formatInteger(token) },
		healthy:   func(val float64) bool { return val < 80 },
		noMatch:   "Can't get disk free",
		unhealthy: "Used disk space is too big: %s%%",
	}.validate,
}

// BaseCheck only requires the command to print something
func BaseCheck(command string) Check {
	return Check{
		Label:    CheckLabelBase,
		Command:  command,
		Validate: validateNotEmpty,
	}
}

func validateNotEmpty(stdout string) error {

	if stdout == "" {
		return invalid("Stdout is Empty")
	}

	return nil
}

// Returns the checks the agent runs by default
func DefaultChecks() []Check {
	return []Check{TemperatureCheck, VoltageCheck, DiskUsageCheck}
}

func LookupCheck(label string) (Check, bool) {

	label = strings.ToLower(strings.TrimSpace(label))

	for _, check := range DefaultChecks() {
		if check.Label == label {
			return check, true
		}
	}

	return Check{}, false
}

// thresholdRule extracts the first capture group of pattern as a number
// and compares it against the healthy predicate
type thresholdRule struct {
	pattern   *regexp.Regexp
	// renders the matched token for the unhealthy message
	format    func(token string, val float64) string
	healthy   func(val float64) bool
	noMatch   string
	unhealthy string
}

func (this thresholdRule) validate(stdout string) error {

	match := this.pattern.FindStringSubmatch(stdout)
	if match == nil {
		return invalid("%s", this.noMatch)
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return fmt.Errorf("parse value '%s': %v", match[1], err)
	}

	if !this.healthy(value) {
		return invalid(this.unhealthy, this.format(match[1], value))
	}

	return nil
}

// formats a float the shortest way that keeps at least one fractional digit: 60.0, 1.419.
// Very large and very small magnitudes switch to exponent form: 1e+16, 1e-05
func formatDecimal(val float64) string {

	if abs := math.Abs(val); abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(val, 'e', -1, 64)
	}

	token := strconv.FormatFloat(val, 'f', -1, 64)
	if !strings.ContainsRune(token, '.') {
		token += ".0"
	}

	return token
}

// formats a run of digits as an exact integer without leading zeros
func formatInteger(digits string) string {

	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		return "0"
	}

	return digits
}
