package importer

import (
	"errors"

	"go.uber.org/zap"
)

// GenericErrorMessage is shown in place of an unexpected error
const GenericErrorMessage = "an unexpected error occurred; see the log for details"

// Report is the status document produced at the end of every run
type Report struct {
	Plugin      string   `json:"plugin" yaml:"plugin"`
	Message     string   `json:"message" yaml:"message"`
	NetworkID   int64    `json:"network_id,omitempty" yaml:"network_id,omitempty"`
	ScenarioIDs []int64  `json:"scenario_ids,omitempty" yaml:"scenario_ids,omitempty"`
	Errors      []string `json:"errors" yaml:"errors"`
	Warnings    []string `json:"warnings" yaml:"warnings"`
	Files       []string `json:"files" yaml:"files"`
}

// NewReport creates an empty report for the named plugin
func NewReport(plugin string) *Report {
	return &Report{
		Plugin:   plugin,
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
		Files:    make([]string, 0),
	}
}

// OK reports whether no error has been recorded
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Fail records err. Domain errors keep their message; anything else is
// logged in full and replaced by a generic message.
func (r *Report) Fail(err error, log *zap.Logger) {
	if err == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		log.Warn("run aborted", zap.Error(err))
		r.Errors = append(r.Errors, err.Error())
		r.Message = "An error was encountered: " + domainErr.Error()
		return
	}

	log.Error("unexpected error", zap.Error(err))
	r.Errors = append(r.Errors, GenericErrorMessage)
	r.Message = "An unknown error has occurred"
}

// Warn records a non-fatal warning
func (r *Report) Warn(msg ...string) {
	r.Warnings = append(r.Warnings, msg...)
}

// AddFile records an output file
func (r *Report) AddFile(path string) {
	r.Files = append(r.Files, path)
}
