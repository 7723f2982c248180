package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/feedback.txt
var feedbackTemplate string

// FeedbackPrompt renders the review instructions for a job context. Empty
// fields render as "N/A" so the template never leaves a dangling label.
func FeedbackPrompt(jobTitle, jobDescription string) string {
	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", orNA(jobTitle),
		"{{JOB_DESCRIPTION}}", orNA(jobDescription),
	)
	return strings.TrimSpace(replacer.Replace(feedbackTemplate))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(s)
}
