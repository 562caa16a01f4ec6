package voice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	dErrors "voxid/pkg/domain-errors"
	"voxid/pkg/requestcontext"
)

// MatchThreshold is the inclusive cosine-similarity cutoff for accepting a
// voice. Preserved verbatim for behavioral compatibility: a pair scoring
// exactly 0.85 matches.
const MatchThreshold = 0.85

// Engine captures voice prints and decides whether a fresh sample matches a
// stored print. It consumes whatever vector the extraction collaborator
// returns; acoustic processing happens elsewhere.
type Engine struct {
	extractor Extractor
	archive   Archive
	logger    *slog.Logger
}

// NewEngine constructs a matching engine.
func NewEngine(extractor Extractor, archive Archive, logger *slog.Logger) *Engine {
	return &Engine{extractor: extractor, archive: archive, logger: logger}
}

// Capture turns a raw sample into a print: validates the input, makes one
// round trip to the extraction collaborator, archives the evidence, and
// returns the print.
func (e *Engine) Capture(ctx context.Context, ownerEmail string, sample Sample) (Print, error) {
	if sample.Empty() {
		return Print{}, dErrors.New(dErrors.CodeNoVoiceInput, "please input your voice")
	}
	if !strings.HasPrefix(sample.MediaType, "audio/") {
		return Print{}, dErrors.New(dErrors.CodeInvalidInput, "invalid voice input")
	}

	emb, err := e.extractor.Extract(ctx, sample)
	if err != nil {
		e.logger.ErrorContext(ctx, "voice feature extraction failed", "error", err)
		return Print{}, dErrors.Wrap(err, dErrors.CodeExtractionFailed, "failed to extract voice features")
	}

	print := NewPrint(emb.Vector)

	rec := ArchivedEmbedding{
		ID:           emb.ID,
		OwnerEmail:   ownerEmail,
		Serial:       print.Serial,
		FeatureCount: emb.FeatureCount,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := e.archive.Save(ctx, rec); err != nil {
		// Evidence only; the captured print is still good.
		e.logger.ErrorContext(ctx, "failed to archive embedding", "error", err, "embedding_id", rec.ID)
	}

	return print, nil
}

// Verify captures a fresh print from the sample and compares it against the
// stored one. Below-threshold similarity is a caller-visible mismatch
// (false, nil), not an error.
func (e *Engine) Verify(ctx context.Context, ownerEmail string, sample Sample, stored Print) (bool, error) {
	if sample.Empty() {
		return false, dErrors.New(dErrors.CodeInvalidInput, "voice sample is required")
	}
	if stored.Empty() {
		return false, dErrors.New(dErrors.CodeInvalidInput, "stored voice print is invalid")
	}

	if len(stored.Vector) == 0 {
		parsed, err := ParsePrint(stored.Serial)
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeVoiceProcessingFailed, "stored voice print is unreadable")
		}
		stored = parsed
	}

	fresh, err := e.Capture(ctx, ownerEmail, sample)
	if err != nil {
		return false, err
	}

	if len(fresh.Vector) != len(stored.Vector) {
		return false, dErrors.New(dErrors.CodeDimensionMismatch, "embedding length mismatch")
	}

	similarity, err := CosineSimilarity(fresh.Vector, stored.Vector)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeVoiceProcessingFailed, "similarity computation failed")
	}

	return similarity >= MatchThreshold, nil
}
