package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"hirenest/application/ports"
	"hirenest/application/sagas"
	"hirenest/domain/config"
	"hirenest/domain/core/valueobjects"
	"hirenest/domain/events"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"
	"hirenest/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Resume pipeline stages, in order
const (
	StageDownload  = "download"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageRender    = "render"
	StageUpload    = "upload"
)

// instructionPhrasings are alternated so repeated runs do not read the same
var instructionPhrasings = []string{
	"Can you please restructure the Experience and Projects sections to align with the provided job description.",
	"Please tailor the Experience and Projects sections to match the following job description.",
	"Can you revise only the Experience and Projects sections based on this job description.",
	"Kindly modify the Experience and Projects sections to suit this job description.",
}

// RestructureRequest is the body of POST /restructure
type RestructureRequest struct {
	ResumeURL      string `json:"resumeUrl"`
	JobDescription string `json:"jobDescription"`
}

// RestructureResult is returned once the tailored resume is stored
type RestructureResult struct {
	Message string `json:"message"`
	PdfURL  string `json:"pdfUrl"`
}

// ResumeService tailors a stored resume to a job description
type ResumeService struct {
	blobs       ports.BlobStore
	extractor   ports.DocumentExtractor
	transformer ports.TextTransformer
	renderer    ports.DocumentRenderer
	eventBus    ports.EventBus
	cfg         *config.DomainConfig
	collector   *observability.Collector
	tracer      *observability.Tracer
	logger      *zap.Logger
	pick        func(n int) int
}

// NewResumeService creates a new ResumeService
func NewResumeService(
	blobs ports.BlobStore,
	extractor ports.DocumentExtractor,
	transformer ports.TextTransformer,
	renderer ports.DocumentRenderer,
	eventBus ports.EventBus,
	cfg *config.DomainConfig,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *ResumeService {
	return &ResumeService{
		blobs:       blobs,
		extractor:   extractor,
		transformer: transformer,
		renderer:    renderer,
		eventBus:    eventBus,
		cfg:         cfg,
		collector:   collector,
		tracer:      tracer,
		logger:      logger,
		pick:        rand.IntN,
	}
}

// BuildInstruction returns the prompt for jobDescription using the phrasing
// at index i (taken modulo the number of phrasings).
func BuildInstruction(i int, jobDescription string) string {
	return instructionPhrasings[i%len(instructionPhrasings)] + " " + jobDescription
}

type storedDocument struct {
	data        []byte
	contentType string
}

// Restructure downloads the resume, rewrites it against the job
// description and stores the result as a new PDF. Any stage failure is
// reported as an upstream failure naming the stage.
func (s *ResumeService) Restructure(ctx context.Context, userID string, req RestructureRequest) (*RestructureResult, error) {
	resumeRef := strings.TrimSpace(req.ResumeURL)
	jobDescription := strings.TrimSpace(req.JobDescription)
	if resumeRef == "" || jobDescription == "" {
		return nil, pkgerrors.NewValidationError("Resume URL and job description are required")
	}
	if max := s.cfg.MaxJobDescriptionLength; max > 0 && len(jobDescription) > max {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("job description must be at most %d characters", max))
	}

	ctx, span := s.tracer.Start(ctx, "Restructure", attribute.String("user.id", userID))
	defer span.End()

	instruction := BuildInstruction(s.pick(len(instructionPhrasings)), jobDescription)
	outputKey := fmt.Sprintf("resumes/%s/%s.pdf", userID, valueobjects.NewID())

	saga := sagas.New("restructure-resume", s.logger).
		AddStep(sagas.Step{
			Name:       StageDownload,
			MaxRetries: 3,
			Retryable:  isTransient,
			Execute: func(ctx context.Context, _ interface{}) (interface{}, error) {
				data, contentType, err := s.blobs.Get(ctx, resumeRef)
				if err != nil {
					return nil, err
				}
				return storedDocument{data: data, contentType: contentType}, nil
			},
		}).
		Step(StageExtract, func(ctx context.Context, in interface{}) (interface{}, error) {
			doc := in.(storedDocument)
			return s.extractor.ExtractText(ctx, doc.data, doc.contentType)
		}).
		Step(StageTransform, func(ctx context.Context, in interface{}) (interface{}, error) {
			return s.transformer.Transform(ctx, in.(string), instruction)
		}).
		Step(StageRender, func(ctx context.Context, in interface{}) (interface{}, error) {
			return s.renderer.RenderPDF(ctx, "Tailored Resume", in.(string))
		}).
		AddStep(sagas.Step{
			Name:       StageUpload,
			MaxRetries: 3,
			Retryable:  isTransient,
			Execute: func(ctx context.Context, in interface{}) (interface{}, error) {
				return s.blobs.Put(ctx, outputKey, in.([]byte), "application/pdf")
			},
		})

	out, err := saga.Execute(ctx, nil)
	if err != nil {
		observability.RecordError(span, err)
		return nil, stageError(err)
	}
	pdfURL := out.(string)

	s.collector.RecordResumeTailored()
	publishEvent(ctx, s.eventBus, s.logger, events.NewResumeRestructured(userID, pdfURL, utils.NowUTC()))
	s.logger.Info("Resume restructured", zap.String("userID", userID), zap.String("ref", pdfURL))

	return &RestructureResult{
		Message: "Resume restructured successfully",
		PdfURL:  pdfURL,
	}, nil
}

// stageError maps a saga failure to the error returned to the caller.
// Problems with the caller's input stay validation errors.
func stageError(err error) error {
	if pkgerrors.IsValidation(err) {
		return err
	}
	stage, cause := "resume pipeline", err
	var stepErr *sagas.StepError
	if errors.As(err, &stepErr) {
		stage, cause = stepErr.Step, stepErr.Err
	}
	return pkgerrors.NewExternalError(stage, cause).
		WithDetails(map[string]interface{}{"stage": stage})
}

// isTransient reports whether a blob store failure may succeed on retry
func isTransient(err error) bool {
	return !pkgerrors.IsNotFound(err) && !pkgerrors.IsValidation(err) &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
