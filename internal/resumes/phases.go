package resumes

// Phase is a step of a single pipeline attempt.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseUploadingFile
	PhaseConvertingImage
	PhaseUploadingImage
	PhasePersisting
	PhaseAwaitingInference
	PhaseExtractingFeedback
	PhaseComplete
)

var phaseNames = [...]string{
	PhaseNotStarted:         "not_started",
	PhaseUploadingFile:      "uploading_file",
	PhaseConvertingImage:    "converting_image",
	PhaseUploadingImage:     "uploading_image",
	PhasePersisting:         "persisting",
	PhaseAwaitingInference:  "awaiting_inference",
	PhaseExtractingFeedback: "extracting_feedback",
	PhaseComplete:           "complete",
}

var phaseLabels = [...]string{
	PhaseNotStarted:         "",
	PhaseUploadingFile:      "Uploading the file...",
	PhaseConvertingImage:    "Converting to image...",
	PhaseUploadingImage:     "Uploading the image...",
	PhasePersisting:         "Preparing...",
	PhaseAwaitingInference:  "Getting AI feedback (about 15–30 seconds)...",
	PhaseExtractingFeedback: "Saving and opening your results...",
	PhaseComplete:           "Done.",
}

// Progress labels that are not tied to a phase transition.
const (
	LabelInferenceRetry = "Retrying AI feedback..."
	LabelAttemptRetry   = "First try failed. Retrying once..."
)

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Label is the text shown to the user while the phase runs.
func (p Phase) Label() string {
	if p < 0 || int(p) >= len(phaseLabels) {
		return ""
	}
	return phaseLabels[p]
}

// ProgressFunc receives human-readable progress labels.
type ProgressFunc func(label string)

func (f ProgressFunc) report(label string) {
	if f != nil && label != "" {
		f(label)
	}
}
