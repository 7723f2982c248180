package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"

	"resumind/internal/blobview"
	"resumind/internal/kv"
	"resumind/internal/shared/storage/object"
)

const (
	contentTypePDF = "application/pdf"
	contentTypePNG = "image/png"
)

// Record fetches a record by id.
func (s *Service) Record(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	value, err := s.KV.Get(ctx, RecordKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get %s: %w", RecordKey(id), err)
	}
	r, err := decodeRecord(value)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r, nil
}

// Load reads a record and both of its blobs into the view session. Handles a
// previous load left in the session are released first, and handles taken by
// this load are released again if it fails or ctx is cancelled. A record
// without feedback yields a usable View together with ErrNoFeedback.
func (s *Service) Load(ctx context.Context, sess *blobview.Session, id string) (view *View, err error) {
	sess.ReleaseAll()

	r, err := s.Record(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ResumePath == "" || r.ImagePath == "" {
		return nil, ErrInvalidRecord
	}

	var acquired []string
	defer func() {
		if err != nil && !errors.Is(err, ErrNoFeedback) {
			sess.Release(acquired...)
		}
	}()

	pdf, err := s.readBlob(ctx, r.ResumePath)
	if err != nil {
		return nil, blobError(ctx, ErrResumeUnavailable, err)
	}
	resume, err := sess.Acquire(pdf, contentTypePDF)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, resume.ID)

	png, err := s.readBlob(ctx, r.ImagePath)
	if err != nil {
		return nil, blobError(ctx, ErrPreviewUnavailable, err)
	}
	image, err := sess.Acquire(png, contentTypePNG)
	if err != nil {
		return nil, err
	}
	acquired = append(acquired, image.ID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view = &View{Record: r, Resume: resume, Image: image}
	result, ok := r.Result()
	if !ok {
		return view, ErrNoFeedback
	}
	view.Feedback = result
	return view, nil
}

// blobError reports cancellation as is so it is not mistaken for a missing blob.
func blobError(ctx context.Context, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func (s *Service) readBlob(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read %s: %w", key, object.ErrNotFound)
	}
	return data, nil
}
