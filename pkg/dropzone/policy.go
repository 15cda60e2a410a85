package dropzone

import (
	"fmt"

	"github.com/vango-dev/dropzone/pkg/accept"
)

// FileInfo describes a selected file.
type FileInfo struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type,omitempty"`
	TempID string `json:"temp_id,omitempty"`
	URL    string `json:"url,omitempty"`
}

// RejectCode identifies why a file was rejected.
type RejectCode string

const (
	CodeInvalidType  RejectCode = "file-invalid-type"
	CodeTooLarge     RejectCode = "file-too-large"
	CodeTooSmall     RejectCode = "file-too-small"
	CodeTooManyFiles RejectCode = "too-many-files"
)

// RejectError is one reason a file was rejected.
type RejectError struct {
	Code    RejectCode `json:"code"`
	Message string     `json:"message"`
}

// Rejection is a file that did not pass the policy.
type Rejection struct {
	File   FileInfo      `json:"file"`
	Errors []RejectError `json:"errors"`
}

// Has reports whether the rejection carries code.
func (r Rejection) Has(code RejectCode) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Policy is the size, count and type filter applied to dropped files.
type Policy struct {
	// Accept is the effective type mapping. Empty accepts every type.
	Accept accept.Mapping

	// MinSize and MaxSize bound each file in bytes. Zero disables the bound.
	MinSize int64
	MaxSize int64

	// MaxFiles caps the selection when Multiple is set. Zero means no cap.
	MaxFiles int

	// Multiple allows more than one file.
	Multiple bool

	// TypeOnly ignores file names when matching types. Set it where names
	// come from an untrusted client and Type was detected from content.
	TypeOnly bool
}

// PolicyFor builds a Policy from an accept Spec.
func PolicyFor(spec accept.Spec, multiple bool, maxFiles int, maxSize int64) Policy {
	return Policy{
		Accept:   accept.Effective(spec),
		MaxSize:  maxSize,
		MaxFiles: maxFiles,
		Multiple: multiple,
	}
}

// Check returns the per-file problems with f, or nil if it passes.
func (p Policy) Check(f FileInfo) []RejectError {
	var errs []RejectError
	name := f.Name
	if p.TypeOnly {
		name = ""
	}
	if !p.Accept.Allows(name, f.Type) {
		errs = append(errs, RejectError{
			Code:    CodeInvalidType,
			Message: "File type must be one of " + p.Accept.Attr(),
		})
	}
	if p.MaxSize > 0 && f.Size > p.MaxSize {
		errs = append(errs, RejectError{
			Code:    CodeTooLarge,
			Message: fmt.Sprintf("File is larger than %d bytes", p.MaxSize),
		})
	}
	if p.MinSize > 0 && f.Size < p.MinSize {
		errs = append(errs, RejectError{
			Code:    CodeTooSmall,
			Message: fmt.Sprintf("File is smaller than %d bytes", p.MinSize),
		})
	}
	return errs
}

// Filter splits files into those that pass the policy and those that don't.
// When the passing files exceed the allowed count, every one of them is
// rejected with CodeTooManyFiles and accepted is empty.
func (p Policy) Filter(files []FileInfo) (accepted []FileInfo, rejected []Rejection) {
	for _, f := range files {
		if errs := p.Check(f); len(errs) > 0 {
			rejected = append(rejected, Rejection{File: f, Errors: errs})
			continue
		}
		accepted = append(accepted, f)
	}

	if p.TooMany(len(accepted)) {
		for _, f := range accepted {
			rejected = append(rejected, Rejection{
				File:   f,
				Errors: []RejectError{{Code: CodeTooManyFiles, Message: "Too many files"}},
			})
		}
		accepted = nil
	}
	return accepted, rejected
}

// TooMany reports whether n passing files exceed what the policy allows.
func (p Policy) TooMany(n int) bool {
	if !p.Multiple {
		return n > 1
	}
	return p.MaxFiles >= 1 && n > p.MaxFiles
}
