package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sample is a raw audio payload handed in by the caller. Feature extraction
// itself is out of scope; this subsystem only forwards the bytes.
type Sample struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Empty reports whether the sample carries no audio.
func (s Sample) Empty() bool { return len(s.Data) == 0 }

// Embedding is the extraction collaborator's answer.
type Embedding struct {
	ID           string    `json:"file_id"`
	Vector       []float64 `json:"embedding"`
	FeatureCount int       `json:"feature_count"`
}

// Extractor is the feature-extraction collaborator: a remote service that
// turns audio into a numeric vector. Exactly one round trip per call; results
// are never cached.
type Extractor interface {
	Extract(ctx context.Context, sample Sample) (Embedding, error)
}

// HTTPExtractor talks to the extraction service over multipart HTTP.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExtractor builds an extractor client with a caller-supplied timeout
// so a dead collaborator surfaces as an error, not a hang.
func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, sample Sample) (Embedding, error) {
	ctx, span := otel.Tracer("voxid/voice").Start(ctx, "extract-embedding",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", sample.Filename)
	if err != nil {
		return Embedding{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(sample.Data); err != nil {
		return Embedding{}, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Embedding{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract-embedding", &body)
	if err != nil {
		return Embedding{}, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "transport failure")
		return Embedding{}, fmt.Errorf("extraction round trip: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "non-success status")
		return Embedding{}, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Embedding{}, fmt.Errorf("read extraction response: %w", err)
	}

	var emb Embedding
	if err := json.Unmarshal(payload, &emb); err != nil {
		return Embedding{}, fmt.Errorf("decode extraction response: %w", err)
	}
	if len(emb.Vector) == 0 {
		return Embedding{}, fmt.Errorf("extraction response carried no embedding")
	}
	return emb, nil
}
