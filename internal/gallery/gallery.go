// Package gallery assembles the carousel: it lists the bucket, joins student
// metadata in one batch, keeps allowed programs and signs display URLs.
//
// Every call re-reads storage and the database; nothing is cached. Failures
// never reach the caller: each stage degrades toward showing fewer images and
// records what happened in the Report and the logs.
package gallery

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/storage"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

const tracerName = "github.com/andresserrato2004/carrusel-photo-isis/internal/gallery"

// StudentStore finds student records by image filename in one query.
type StudentStore interface {
	LookupStudents(ctx context.Context, filenames []string) ([]types.StudentRecord, error)
}

// Programs decides whether a career label may be shown.
type Programs interface {
	Allowed(career string) bool
}

// Stages reported when a run degrades.
const (
	StageConfig   = "config"
	StageStorage  = "storage"
	StageDatabase = "database"
)

// Report describes one run of the pipeline.
type Report struct {
	Images []types.DisplayImage

	Listed  int // image objects in the bucket
	Matched int // objects with a student record
	Allowed int // matched, named and in an allowed program
	Signed  int // allowed and successfully signed

	// Degraded names the stage that failed, empty when none did.
	Degraded string
	Duration time.Duration
}

type Options struct {
	URLTTL      time.Duration
	Concurrency int
}

// Service is stateless between calls and safe for concurrent use.
type Service struct {
	bucket   storage.Bucket
	store    StudentStore
	programs Programs
	ttl      time.Duration
	limit    int
	tracer   trace.Tracer
}

func NewService(bucket storage.Bucket, store StudentStore, programs Programs, opts Options) *Service {
	if opts.URLTTL <= 0 {
		opts.URLTTL = time.Hour
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	return &Service{
		bucket:   bucket,
		store:    store,
		programs: programs,
		ttl:      opts.URLTTL,
		limit:    opts.Concurrency,
		tracer:   otel.Tracer(tracerName),
	}
}

// Images returns the carousel, newest first. It never fails; see Run.
func (s *Service) Images(ctx context.Context) []types.DisplayImage {
	return s.Run(ctx).Images
}

// Run executes the pipeline and reports counts for diagnostics.
func (s *Service) Run(ctx context.Context) Report {
	ctx, span := s.tracer.Start(ctx, "gallery.Run")
	defer span.End()

	start := time.Now()
	report := s.run(ctx)
	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("gallery.listed", report.Listed),
		attribute.Int("gallery.matched", report.Matched),
		attribute.Int("gallery.allowed", report.Allowed),
		attribute.Int("gallery.signed", report.Signed),
	)
	if report.Degraded != "" {
		span.SetAttributes(attribute.String("gallery.degraded", report.Degraded))
		span.SetStatus(codes.Error, "degraded at "+report.Degraded)
	}

	fields := logger.Fields{
		"listed":      report.Listed,
		"matched":     report.Matched,
		"allowed":     report.Allowed,
		"signed":      report.Signed,
		"degraded":    report.Degraded,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if len(report.Images) == 0 {
		logger.Warn(ctx, "gallery is empty", fields)
	} else {
		logger.Debug(ctx, "gallery assembled", fields)
	}
	return report
}

func (s *Service) run(ctx context.Context) Report {
	report := Report{Images: []types.DisplayImage{}}

	if s.bucket == nil || s.bucket.Name() == "" {
		logger.Error(ctx, "bucket name is not configured", nil)
		report.Degraded = StageConfig
		return report
	}

	objects, err := storage.ListImages(ctx, s.bucket)
	if err != nil {
		logger.Error(ctx, "failed to list images", err, logger.Fields{
			"bucket": s.bucket.Name(),
			"code":   storage.ErrorCode(err),
		})
		report.Degraded = StageStorage
		return report
	}
	report.Listed = len(objects)

	byFile := s.lookup(ctx, objects, &report)

	candidates := make([]candidate, 0, len(objects))
	for _, obj := range objects {
		rec, ok := byFile[obj.FileName()]
		if !ok {
			continue
		}
		report.Matched++
		if rec.Name == "" || !s.programs.Allowed(rec.Career) {
			continue
		}
		candidates = append(candidates, candidate{object: obj, record: rec})
	}
	report.Allowed = len(candidates)

	report.Images = s.sign(ctx, candidates)
	report.Signed = len(report.Images)
	return report
}

// lookup performs the single batch query and indexes the result by filename.
// A failed query yields an empty index.
func (s *Service) lookup(ctx context.Context, objects []types.StoredObject, report *Report) map[string]types.StudentRecord {
	filenames := make([]string, len(objects))
	for i, obj := range objects {
		filenames[i] = obj.FileName()
	}

	var (
		records []types.StudentRecord
		err     error
	)
	if s.store == nil {
		err = errors.New("student store is not configured")
	} else {
		records, err = s.store.LookupStudents(ctx, filenames)
	}
	if err != nil {
		logger.Error(ctx, "failed to lookup students", err, logger.Fields{
			"files_count": len(filenames),
		})
		report.Degraded = StageDatabase
		return map[string]types.StudentRecord{}
	}

	byFile := make(map[string]types.StudentRecord, len(records))
	for _, rec := range records {
		if _, dup := byFile[rec.Image]; dup {
			continue
		}
		byFile[rec.Image] = rec
	}
	return byFile
}

type candidate struct {
	object types.StoredObject
	record types.StudentRecord
}

// sign issues URLs concurrently and keeps candidate order. A failed signature
// drops only that image.
func (s *Service) sign(ctx context.Context, candidates []candidate) []types.DisplayImage {
	urls := make([]string, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, c := range candidates {
		g.Go(func() error {
			url, err := s.bucket.SignedURL(ctx, c.object.Key, s.ttl)
			if err != nil {
				logger.Error(ctx, "failed to generate signed URL", err, logger.Fields{
					"key": c.object.Key,
				})
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()

	images := make([]types.DisplayImage, 0, len(candidates))
	for i, c := range candidates {
		if urls[i] == "" {
			continue
		}
		images = append(images, types.DisplayImage{
			Key:           c.object.Key,
			URL:           urls[i],
			LastModified:  c.object.LastModified,
			StudentName:   c.record.Name,
			StudentCareer: c.record.Career,
		})
	}
	return images
}
