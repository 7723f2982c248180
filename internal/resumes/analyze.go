package resumes

import (
	"context"
	"errors"
	"time"

	"resumind/internal/shared/metrics"
	"resumind/internal/shared/telemetry"
)

// Outcome is the terminal result of Analyze. On success ID and Redirect are
// set; on failure Message holds user-facing text and Err the cause.
type Outcome struct {
	ID       string
	Redirect string
	Message  string
	Err      error
	Attempts int
}

// OK reports whether the analysis succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// RedirectPath is where a client goes to view a finished analysis.
func RedirectPath(id string) string {
	return "/resume/" + id
}

// Analyze runs the pipeline and, if it fails, pauses and runs one more fresh
// attempt with a new id. It never returns an error; failures end up in the
// Outcome.
func (s *Service) Analyze(ctx context.Context, job JobContext, file File, progress ProgressFunc) Outcome {
	start := time.Now()

	id, err := s.RunAttempt(ctx, job, file, progress)
	attempts := 1
	if err != nil {
		s.logAttemptFailure(attempts, id, err)
		metrics.IncAttemptRetry()
		progress.report(LabelAttemptRetry)

		if sleepErr := s.sleep(ctx, s.attemptRetryDelay()); sleepErr != nil {
			return s.failed(attempts, id, errors.Join(err, sleepErr), start)
		}
		attempts++
		id, err = s.RunAttempt(ctx, job, file, progress)
	}
	if err != nil {
		s.logAttemptFailure(attempts, id, err)
		return s.failed(attempts, id, err, start)
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(metrics.SinceMillis(start))
	telemetry.Info("resume.analysis.completed", map[string]any{
		"owner":       s.Owner,
		"resume_id":   id,
		"attempts":    attempts,
		"duration_ms": metrics.SinceMillis(start),
	})
	return Outcome{ID: id, Redirect: RedirectPath(id), Attempts: attempts}
}

func (s *Service) failed(attempts int, id string, err error, start time.Time) Outcome {
	metrics.IncAnalysisFailed()
	metrics.ObserveAnalysisDurationMs(metrics.SinceMillis(start))
	telemetry.Error("resume.analysis.failed", map[string]any{
		"owner":     s.Owner,
		"resume_id": id,
		"attempts":  attempts,
		"error":     err,
	})
	return Outcome{Message: UserMessage(err), Err: err, Attempts: attempts}
}

func (s *Service) logAttemptFailure(attempt int, id string, err error) {
	fields := map[string]any{
		"owner":     s.Owner,
		"resume_id": id,
		"attempt":   attempt,
		"error":     err,
	}
	var f *Failure
	if errors.As(err, &f) {
		fields["phase"] = f.Phase.String()
	}
	telemetry.Warn("resume.attempt.failed", fields)
}
