package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"resumind/internal/feedback"
	"resumind/internal/llm"
	"resumind/internal/raster"
	"resumind/internal/shared/metrics"
	"resumind/internal/shared/telemetry"
)

// attempt is the state of one pipeline run. It is owned by a single goroutine.
type attempt struct {
	svc      *Service
	job      JobContext
	file     File
	progress ProgressFunc

	phase     Phase
	id        string
	resumeRef string
	imageRef  string
	record    Record
}

// RunAttempt runs the pipeline once: upload the file, rasterize and upload its
// first page, persist a provisional record, ask for feedback and store the
// completed record. The returned id is empty when the attempt failed before a
// record was written. Errors are *Failure values.
func (s *Service) RunAttempt(ctx context.Context, job JobContext, file File, progress ProgressFunc) (string, error) {
	a := &attempt{svc: s, job: job, file: file, progress: progress}
	metrics.IncAttemptStarted()
	if err := a.run(ctx); err != nil {
		metrics.IncAttemptFailed()
		return a.id, err
	}
	return a.id, nil
}

func (a *attempt) run(ctx context.Context) error {
	if !a.svc.ready() {
		return a.fail(ErrNotReady, "The service is still starting up. Wait a moment and try again.", nil)
	}

	a.enter(PhaseUploadingFile)
	if err := a.uploadFile(ctx); err != nil {
		return err
	}

	a.enter(PhaseConvertingImage)
	img, err := a.convert(ctx)
	if err != nil {
		return err
	}

	a.enter(PhaseUploadingImage)
	if err := a.uploadImage(ctx, img); err != nil {
		return err
	}

	a.enter(PhasePersisting)
	if err := a.persist(ctx); err != nil {
		return err
	}

	a.enter(PhaseAwaitingInference)
	resp, err := a.infer(ctx)
	if err != nil {
		return err
	}

	a.enter(PhaseExtractingFeedback)
	result, err := a.extract(resp)
	if err != nil {
		return err
	}
	if err := a.complete(ctx, result); err != nil {
		return err
	}

	a.enter(PhaseComplete)
	return nil
}

func (a *attempt) enter(p Phase) {
	a.phase = p
	telemetry.Debug("resume.attempt.phase", map[string]any{
		"owner":     a.svc.Owner,
		"resume_id": a.id,
		"phase":     p.String(),
	})
	a.progress.report(p.Label())
}

func (a *attempt) fail(kind error, message string, cause error) error {
	return &Failure{Kind: kind, Phase: a.phase, Message: message, Cause: cause}
}

func (a *attempt) uploadFile(ctx context.Context) error {
	obj, err := a.svc.Store.Save(ctx, a.svc.Owner, a.file.Name, bytes.NewReader(a.file.Data))
	if err != nil {
		return a.fail(ErrUpload, "Failed to upload file", err)
	}
	if obj.Key == "" {
		return a.fail(ErrUpload, "Failed to get file path", nil)
	}
	a.resumeRef = obj.Key
	return nil
}

func (a *attempt) convert(ctx context.Context) (raster.Image, error) {
	img, err := a.svc.Raster.FirstPage(ctx, a.file.Name, a.file.Data)
	if err != nil {
		msg := "Failed to convert PDF to image"
		var rerr *raster.Error
		if errors.As(err, &rerr) && rerr.Reason != "" {
			msg = rerr.Reason
		}
		return raster.Image{}, a.fail(ErrConversion, msg, err)
	}
	if len(img.Data) == 0 {
		return raster.Image{}, a.fail(ErrConversion, "Failed to convert PDF to image", nil)
	}
	return img, nil
}

func (a *attempt) uploadImage(ctx context.Context, img raster.Image) error {
	obj, err := a.svc.Store.Save(ctx, a.svc.Owner, img.Name, bytes.NewReader(img.Data))
	if err != nil {
		return a.fail(ErrUpload, "Failed to upload image", err)
	}
	if obj.Key == "" {
		return a.fail(ErrUpload, "Failed to get image path", nil)
	}
	a.imageRef = obj.Key
	return nil
}

// persist writes the provisional record so a started attempt is discoverable
// even when later steps fail.
func (a *attempt) persist(ctx context.Context) error {
	a.id = a.svc.newID()
	a.record = newRecord(a.id, a.resumeRef, a.imageRef, a.job)
	if err := a.write(ctx, a.record); err != nil {
		return a.fail(ErrPersist, "Failed to save resume data", err)
	}
	return nil
}

func (a *attempt) infer(ctx context.Context) (*llm.Response, error) {
	prompt := llm.FeedbackPrompt(a.job.JobTitle, a.job.JobDescription)

	resp, err := a.callFeedback(ctx, prompt)
	if err == nil {
		return resp, nil
	}

	metrics.IncInferenceRetry()
	telemetry.Warn("resume.inference.retry", map[string]any{
		"owner":     a.svc.Owner,
		"resume_id": a.id,
		"error":     err,
	})
	a.progress.report(LabelInferenceRetry)
	if err := a.svc.sleep(ctx, a.svc.inferenceRetryDelay()); err != nil {
		return nil, a.fail(ErrInference, "AI did not return feedback. Try again.", err)
	}

	resp, err = a.callFeedback(ctx, prompt)
	if err != nil {
		return nil, a.fail(ErrInference, "AI did not return feedback. Try again.", err)
	}
	return resp, nil
}

// callFeedback treats a response without content as a failed call.
func (a *attempt) callFeedback(ctx context.Context, prompt string) (*llm.Response, error) {
	resp, err := a.svc.LLM.Feedback(ctx, a.resumeRef, prompt)
	if err != nil {
		return nil, err
	}
	if !resp.HasContent() {
		return nil, llm.ErrNoContent
	}
	return resp, nil
}

func (a *attempt) extract(resp *llm.Response) (*feedback.Result, error) {
	text, err := resp.Text()
	if err != nil {
		if errors.Is(err, llm.ErrNoContent) {
			return nil, a.fail(ErrInference, "AI did not return feedback. Try again.", err)
		}
		return nil, a.fail(ErrMalformedResponse, "Invalid AI response format", err)
	}
	result := feedback.Extract(text)
	if result == nil {
		return nil, a.fail(ErrExtraction, "Could not read feedback. Try again.", nil)
	}
	return result, nil
}

func (a *attempt) complete(ctx context.Context, result *feedback.Result) error {
	final, err := a.record.withResult(result)
	if err != nil {
		return a.fail(ErrPersist, "Failed to save results", err)
	}
	if err := a.write(ctx, final); err != nil {
		return a.fail(ErrPersist, "Failed to save results", err)
	}
	a.record = final
	return nil
}

func (a *attempt) write(ctx context.Context, r Record) error {
	value, err := r.encode()
	if err != nil {
		return err
	}
	if err := a.svc.KV.Set(ctx, RecordKey(r.ID), value); err != nil {
		return fmt.Errorf("set %s: %w", RecordKey(r.ID), err)
	}
	return nil
}
