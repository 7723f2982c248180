package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"testing"
	"time"

	"resumind/internal/kv"
	"resumind/internal/llm"
	"resumind/internal/raster"
	"resumind/internal/shared/storage/object"
)

const sampleFeedback = `{"overallScore":82,"ATS":{"score":80,"tips":[]},` +
	`"toneAndStyle":{"score":70,"tips":[{"type":"good","tip":"Clear voice","explanation":"Reads well."}]},` +
	`"content":{"score":75,"tips":[{"type":"improve","tip":"Quantify impact","explanation":"Add numbers."}]},` +
	`"structure":{"score":80,"tips":[]},"skills":{"score":85,"tips":[]}}`

var samplePDF = []byte("%PDF-1.4\n% test resume\n")

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	keys      []string
	saveErr   map[string]error
	deleteErr error
	saves     []string
	deleted   []string
	onOpen    func(key string)
}

func newFakeStore(keys ...string) *fakeStore {
	return &fakeStore{objects: make(map[string][]byte), keys: keys, saveErr: map[string]error{}}
}

func (f *fakeStore) Save(ctx context.Context, owner, fileName string, r io.Reader) (object.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, fileName)
	if err := f.saveErr[path.Ext(fileName)]; err != nil {
		return object.Object{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, err
	}
	key := fmt.Sprintf("%s/%d_%s", owner, len(f.saves), fileName)
	if len(f.keys) > 0 {
		key, f.keys = f.keys[0], f.keys[1:]
	}
	f.objects[key] = data
	return object.Object{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.onOpen != nil {
		f.onOpen(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

type fakeRaster struct {
	err error
}

func (f fakeRaster) FirstPage(ctx context.Context, name string, pdf []byte) (raster.Image, error) {
	if f.err != nil {
		return raster.Image{}, f.err
	}
	return raster.Image{Name: "resume.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\npreview")}, nil
}

type llmCall func(ctx context.Context, fileRef string) (*llm.Response, error)

// scriptedLLM plays calls in order and repeats the last one once exhausted.
type scriptedLLM struct {
	mu     sync.Mutex
	script []llmCall
	refs   []string
}

func (s *scriptedLLM) Feedback(ctx context.Context, fileRef string, prompt string) (*llm.Response, error) {
	s.mu.Lock()
	s.refs = append(s.refs, fileRef)
	n := len(s.refs)
	call := s.script[len(s.script)-1]
	if n <= len(s.script) {
		call = s.script[n-1]
	}
	s.mu.Unlock()
	return call(ctx, fileRef)
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

func respondText(text string) llmCall {
	return func(context.Context, string) (*llm.Response, error) { return llm.TextResponse(text), nil }
}

func respondErr(err error) llmCall {
	return func(context.Context, string) (*llm.Response, error) { return nil, err }
}

// recordingKV remembers every value written and can hold deletes open.
type recordingKV struct {
	*kv.MemoryStore

	mu        sync.Mutex
	sets      []string
	deletes   int
	deleteErr error
	started   chan struct{}
	gate      chan struct{}
}

func newRecordingKV() *recordingKV {
	return &recordingKV{MemoryStore: kv.NewMemoryStore()}
}

func (r *recordingKV) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.sets = append(r.sets, value)
	r.mu.Unlock()
	return r.MemoryStore.Set(ctx, key, value)
}

func (r *recordingKV) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	r.deletes++
	started, gate, err := r.started, r.gate, r.deleteErr
	r.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}
	return r.MemoryStore.Delete(ctx, key)
}

func (r *recordingKV) deleteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletes
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type harness struct {
	svc    *Service
	store  *fakeStore
	kv     *recordingKV
	llm    *scriptedLLM
	sleeps *sleepRecorder
}

func newHarness(t *testing.T, script ...llmCall) *harness {
	t.Helper()
	if len(script) == 0 {
		script = []llmCall{respondText(sampleFeedback)}
	}
	h := &harness{
		store:  newFakeStore(),
		kv:     newRecordingKV(),
		llm:    &scriptedLLM{script: script},
		sleeps: &sleepRecorder{},
	}
	ids := 0
	h.svc = &Service{
		Owner:  "user-1",
		Store:  h.store,
		KV:     h.kv,
		LLM:    h.llm,
		Raster: fakeRaster{},
		Ready:  readyFlag(true),
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		Sleep: h.sleeps.Sleep,
	}
	return h
}

func (h *harness) storedRecord(t *testing.T, id string) Record {
	t.Helper()
	r, err := h.svc.Record(context.Background(), id)
	if err != nil {
		t.Fatalf("record %s: %v", id, err)
	}
	return r
}

var errBoom = errors.New("boom")
