// Package httptransport is the thin HTTP layer: it parses requests, calls
// the identity services, and renders their answers. No business rules here.
package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"voxid/internal/voice"
	dErrors "voxid/pkg/domain-errors"
)

// maxSampleBytes bounds uploaded audio; the extractor rejects big files
// anyway, this just stops us buffering them.
const maxSampleBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders a coded error as the standard envelope. Internal detail
// never leaks: the body carries only the code and its public message.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal server error"
	var de *dErrors.DomainError
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

// readSample pulls the uploaded audio out of a multipart form. A request with
// no "audio" part yields an empty sample; the services decide what that means.
func readSample(r *http.Request) (voice.Sample, error) {
	if err := r.ParseMultipartForm(maxSampleBytes); err != nil {
		return voice.Sample{}, dErrors.New(dErrors.CodeInvalidInput, "invalid multipart body")
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return voice.Sample{}, nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSampleBytes))
	if err != nil {
		return voice.Sample{}, dErrors.New(dErrors.CodeInvalidInput, "could not read audio")
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "audio/wav"
	}
	return voice.Sample{
		Filename:  header.Filename,
		MediaType: mediaType,
		Data:      data,
	}, nil
}
