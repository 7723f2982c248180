package resumes

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestAnalyzeEndToEnd(t *testing.T) {
	h := newHarness(t, respondText("Here is my review.\n```json\n"+sampleFeedback+"\n```\nGood luck!"))
	h.store.keys = []string{"/r/abc.pdf", "/r/abc.png"}

	job := JobContext{CompanyName: "Acme", JobTitle: "Engineer", JobDescription: "Build things"}
	out := h.svc.Analyze(context.Background(), job, File{Name: "resume.pdf", Data: samplePDF}, nil)
	if !out.OK() {
		t.Fatalf("Analyze failed: %s (%v)", out.Message, out.Err)
	}
	if out.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", out.Attempts)
	}
	if out.Redirect != "/resume/"+out.ID {
		t.Fatalf("unexpected redirect %q", out.Redirect)
	}

	r := h.storedRecord(t, out.ID)
	if r.ResumePath != "/r/abc.pdf" || r.ImagePath != "/r/abc.png" {
		t.Fatalf("unexpected paths %q %q", r.ResumePath, r.ImagePath)
	}
	if r.CompanyName != "Acme" || r.JobTitle != "Engineer" || r.JobDescription != "Build things" {
		t.Fatalf("job context not stored: %+v", r)
	}
	res, ok := r.Result()
	if !ok || res.OverallScore != 82 || res.ATS.Score != 80 {
		t.Fatalf("unexpected feedback %s", r.Feedback)
	}
	if !reflect.DeepEqual(h.llm.refs, []string{"/r/abc.pdf"}) {
		t.Fatalf("inference should get the resume path, got %q", h.llm.refs)
	}
	if len(h.sleeps.recorded()) != 0 {
		t.Fatalf("no pauses expected, got %v", h.sleeps.recorded())
	}
}

func TestAnalyzeRetriesWholeAttemptWithFreshID(t *testing.T) {
	h := newHarness(t, respondErr(errBoom))

	var labels []string
	out := h.svc.Analyze(context.Background(), JobContext{}, File{Name: "resume.pdf", Data: samplePDF}, func(l string) {
		labels = append(labels, l)
	})
	if out.OK() {
		t.Fatalf("expected failure")
	}
	if out.Attempts != 2 {
		t.Fatalf("expected two attempts, got %d", out.Attempts)
	}
	if out.Message != "AI did not return feedback. Try again." {
		t.Fatalf("unexpected message %q", out.Message)
	}
	if !errors.Is(out.Err, ErrInference) || !errors.Is(out.Err, errBoom) {
		t.Fatalf("outcome should keep the cause, got %v", out.Err)
	}
	if h.llm.calls() != 4 {
		t.Fatalf("expected 4 inference calls, got %d", h.llm.calls())
	}

	wantSleeps := []time.Duration{DefaultInferenceRetryDelay, DefaultAttemptRetryDelay, DefaultInferenceRetryDelay}
	if got := h.sleeps.recorded(); !reflect.DeepEqual(got, wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", got, wantSleeps)
	}

	// Each attempt wrote its own provisional record.
	items, err := h.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Record.ID == items[1].Record.ID {
		t.Fatalf("expected two distinct provisional records, got %+v", items)
	}
	for _, it := range items {
		if it.Status != StatusIncomplete || it.Feedback != nil {
			t.Fatalf("provisional record must be incomplete, got %+v", it)
		}
	}
	if !contains(labels, LabelAttemptRetry) {
		t.Fatalf("expected %q in %q", LabelAttemptRetry, labels)
	}
}

func TestAnalyzeSecondAttemptSucceeds(t *testing.T) {
	h := newHarness(t, respondErr(errBoom), respondErr(errBoom), respondText(sampleFeedback))

	out := h.svc.Analyze(context.Background(), JobContext{}, File{Name: "resume.pdf", Data: samplePDF}, nil)
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.ID != "id-2" || out.Attempts != 2 {
		t.Fatalf("expected second attempt id-2, got %q after %d attempts", out.ID, out.Attempts)
	}
	if !strings.HasSuffix(out.Redirect, "/id-2") {
		t.Fatalf("unexpected redirect %q", out.Redirect)
	}
}

func TestAnalyzeCustomDelays(t *testing.T) {
	h := newHarness(t, respondErr(errBoom))
	h.svc.InferenceRetryDelay = 10 * time.Millisecond
	h.svc.AttemptRetryDelay = 20 * time.Millisecond

	h.svc.Analyze(context.Background(), JobContext{}, File{Name: "resume.pdf", Data: samplePDF}, nil)

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond}
	if got := h.sleeps.recorded(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
}

func TestAnalyzeStopsWhenCancelledBetweenAttempts(t *testing.T) {
	h := newHarness(t)
	h.svc.Ready = readyFlag(false)
	ctx, cancel := context.WithCancel(context.Background())
	h.svc.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	out := h.svc.Analyze(ctx, JobContext{}, File{Name: "resume.pdf", Data: samplePDF}, nil)
	if out.OK() || out.Attempts != 1 {
		t.Fatalf("expected failure after one attempt, got %+v", out)
	}
	if !errors.Is(out.Err, ErrNotReady) || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected joined not-ready and cancellation, got %v", out.Err)
	}
	if out.Message != "The service is still starting up. Wait a moment and try again." {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleepContext: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
