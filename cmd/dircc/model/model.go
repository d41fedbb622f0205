// Package model defines the wire representation of build requests and
// results for the REST and WebSocket surfaces.
package model

import (
	"github.com/buildforge/dircc/builder"
)

// BuildRequest defines overrides a client may apply to a single build run
type BuildRequest struct {
	RequestID   string   `json:"requestId,omitempty"`
	SrcDir      string   `json:"srcDir,omitempty"`
	LegacyMatch *bool    `json:"legacyMatch,omitempty"`
	ExtraArgs   []string `json:"extraArgs,omitempty"`
}

// FileResult defines the wire form of one compiled file
type FileResult struct {
	Name       string `json:"name"`
	Output     string `json:"output,omitempty"`
	Toolchain  string `json:"toolchain,omitempty"`
	Status     string `json:"status"`
	ExitStatus int    `json:"exitStatus"`
	TimeNs     int64  `json:"time"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
	ArtifactID string `json:"artifactId,omitempty"`
}

// Summary defines the wire form of a build run
type Summary struct {
	RequestID  string       `json:"requestId,omitempty"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	DurationNs int64        `json:"duration"`
	Results    []FileResult `json:"results"`
}

// ConvertFileResult converts a builder result into its wire form
func ConvertFileResult(r builder.FileResult) FileResult {
	return FileResult{
		Name:       r.Name,
		Output:     r.Output,
		Toolchain:  r.Toolchain,
		Status:     r.Status.String(),
		ExitStatus: r.ExitStatus,
		TimeNs:     int64(r.Time),
		Stderr:     r.Stderr,
		Error:      r.Error,
		ArtifactID: r.ArtifactID,
	}
}

// ConvertSummary converts a builder summary into its wire form
func ConvertSummary(requestID string, s *builder.Summary) Summary {
	rt := Summary{
		RequestID:  requestID,
		Total:      s.Total,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		DurationNs: int64(s.Duration),
		Results:    make([]FileResult, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		rt.Results = append(rt.Results, ConvertFileResult(r))
	}
	return rt
}
