package resumes

import (
	"bytes"
	"encoding/json"
	"fmt"

	"resumind/internal/blobview"
	"resumind/internal/feedback"
)

const (
	keyPrefix     = "resume:"
	recordPattern = keyPrefix + "*"
)

// RecordKey returns the key-value key a record is stored under.
func RecordKey(id string) string {
	return keyPrefix + id
}

// JobContext is the optional job the resume is evaluated against.
type JobContext struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
}

// File is an uploaded resume.
type File struct {
	Name string
	Data []byte
}

// Record is the persisted analysis. Feedback holds the JSON string "" until
// the attempt completes and a feedback object afterwards.
type Record struct {
	ID             string          `json:"id"`
	ResumePath     string          `json:"resumePath"`
	ImagePath      string          `json:"imagePath"`
	CompanyName    string          `json:"companyName"`
	JobTitle       string          `json:"jobTitle"`
	JobDescription string          `json:"jobDescription"`
	Feedback       json.RawMessage `json:"feedback"`
}

var provisionalFeedback = json.RawMessage(`""`)

func newRecord(id, resumePath, imagePath string, job JobContext) Record {
	return Record{
		ID:             id,
		ResumePath:     resumePath,
		ImagePath:      imagePath,
		CompanyName:    job.CompanyName,
		JobTitle:       job.JobTitle,
		JobDescription: job.JobDescription,
		Feedback:       provisionalFeedback,
	}
}

// Result decodes the feedback when it is an object. Anything else, including
// the provisional empty string, reports false.
func (r Record) Result() (*feedback.Result, bool) {
	raw := bytes.TrimSpace(r.Feedback)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var res feedback.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// Provisional reports whether the feedback is still the empty placeholder.
func (r Record) Provisional() bool {
	return bytes.Equal(bytes.TrimSpace(r.Feedback), provisionalFeedback)
}

func (r Record) withResult(res *feedback.Result) (Record, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return r, fmt.Errorf("encode feedback: %w", err)
	}
	r.Feedback = raw
	return r, nil
}

func (r Record) encode() (string, error) {
	if len(r.Feedback) == 0 {
		r.Feedback = provisionalFeedback
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return string(raw), nil
}

func decodeRecord(value string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Status of a listed record.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// Item is one entry of a listing.
type Item struct {
	Key      string
	Record   Record
	Status   Status
	Feedback *feedback.Result
}

// View is a loaded record with handles to its blobs.
type View struct {
	Record   Record
	Resume   blobview.Handle
	Image    blobview.Handle
	Feedback *feedback.Result
}
