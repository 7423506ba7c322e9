package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls how expectation steps behave when they fail.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on a missed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs missed expectations and keeps running.
	AssertionLogOnly
)

// Assertions evaluates expectation steps under a mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Checkf returns an error in strict mode when ok is false, and logs the
// failed expectation otherwise.
func (a Assertions) Checkf(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("expectation failed: "+format, args...)
		}
		return nil
	}
	return fmt.Errorf(format, args...)
}
