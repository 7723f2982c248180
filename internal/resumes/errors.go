package resumes

import (
	"context"
	"errors"
	"fmt"
)

// Pipeline failure kinds.
var (
	ErrNotReady          = errors.New("platform not ready")
	ErrUpload            = errors.New("upload failed")
	ErrConversion        = errors.New("conversion failed")
	ErrPersist           = errors.New("record write failed")
	ErrInference         = errors.New("inference failed")
	ErrMalformedResponse = errors.New("malformed inference response")
	ErrExtraction        = errors.New("feedback extraction failed")
)

// Read and delete path errors.
var (
	ErrNotFound           = errors.New("resume not found")
	ErrInvalidRecord      = errors.New("invalid resume data")
	ErrResumeUnavailable  = errors.New("resume file unavailable")
	ErrPreviewUnavailable = errors.New("resume preview unavailable")
	ErrNoFeedback         = errors.New("no feedback data")
	ErrDeleteInProgress   = errors.New("delete already in progress")
)

// Failure is returned by a pipeline attempt. Message is safe to show to users;
// Cause carries the diagnostic error.
type Failure struct {
	Kind    error
	Phase   Phase
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("%s: %s", f.Phase, f.Message)
	}
	return fmt.Sprintf("%s: %s: %v", f.Phase, f.Message, f.Cause)
}

func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Cause != nil {
		errs = append(errs, f.Cause)
	}
	return errs
}

const fallbackMessage = "Something went wrong. Try again."

var readMessages = []struct {
	err error
	msg string
}{
	{ErrNotFound, "Resume not found. It may have expired or the link is invalid."},
	{ErrInvalidRecord, "Invalid resume data."},
	{ErrResumeUnavailable, "Could not load resume file."},
	{ErrPreviewUnavailable, "Could not load resume preview."},
	{ErrNoFeedback, "No feedback data for this resume."},
	{ErrDeleteInProgress, "A delete for this resume is already running."},
}

// UserMessage returns short text for err that can be shown to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	for _, m := range readMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "The request was interrupted. Try again."
	}
	return fallbackMessage
}
