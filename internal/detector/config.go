package detector

import (
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	// ModeSMS synthesizes a pseudo-SMS and parses it back into an expense.
	ModeSMS Mode = "sms"
	// ModeSimple samples a row of the plain sample table.
	ModeSimple Mode = "simple"
)

func (m Mode) IsValid() bool {
	return m == ModeSMS || m == ModeSimple
}

// Config holds configuration for the generator
type Config struct {
	// Interval between the end of one tick and the start of the next (default: 25s)
	Interval time.Duration

	// Probability that a tick produces a transaction, in [0, 1] (default: 0.6)
	Probability float64

	Mode Mode

	// ReportEvery sends a summary report every N successful detections (default: 5)
	ReportEvery int

	// MaxBackdate bounds how far back simple-mode timestamps are pushed; 0 keeps them at now
	MaxBackdate time.Duration

	Tables Tables
}

// DefaultConfig returns the canonical generator settings.
func DefaultConfig() Config {
	return Config{
		Interval:    25 * time.Second,
		Probability: 0.6,
		Mode:        ModeSMS,
		ReportEvery: 5,
		MaxBackdate: 24 * time.Hour,
		Tables:      DefaultTables(),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Interval))
	}
	if c.Probability < 0 || c.Probability > 1 {
		errs = append(errs, fmt.Errorf("probability must be within [0, 1], got %v", c.Probability))
	}
	if !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.ReportEvery <= 0 {
		errs = append(errs, fmt.Errorf("report interval must be positive, got %d", c.ReportEvery))
	}
	if c.MaxBackdate < 0 {
		errs = append(errs, fmt.Errorf("max backdate cannot be negative, got %v", c.MaxBackdate))
	}
	if err := c.Tables.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
