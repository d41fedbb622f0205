package worker

import (
	"fmt"
	"time"

	"github.com/buildforge/dircc/runner"
	"github.com/buildforge/dircc/scan"
	"github.com/buildforge/dircc/toolchain"
)

// Request defines a single file compilation
type Request struct {
	RequestID string
	Source    scan.Source
	Toolchain *toolchain.Toolchain
	ExtraArgs []string
	Output    string
}

// Result defines the outcome of a single file compilation
type Result struct {
	Status     runner.Status
	ExitStatus int
	Time       time.Duration
	Stdout     string
	Stderr     string
	Error      string
	Toolchain  string
	Output     string
}

// Response defines worker response for a single request
type Response struct {
	RequestID string
	Result    Result
}

func (r Result) String() string {
	type Result struct {
		Status     runner.Status
		ExitStatus int
		Time       time.Duration
		Stdout     string
		Stderr     string
		Error      string
		Toolchain  string
		Output     string
	}
	d := Result{
		Status:     r.Status,
		ExitStatus: r.ExitStatus,
		Time:       r.Time,
		Stdout:     fmt.Sprintf("(len:%d)", len(r.Stdout)),
		Stderr:     fmt.Sprintf("(len:%d)", len(r.Stderr)),
		Error:      r.Error,
		Toolchain:  r.Toolchain,
		Output:     r.Output,
	}
	return fmt.Sprintf("%+v", d)
}
