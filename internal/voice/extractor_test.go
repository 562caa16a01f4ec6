package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExtractorHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/extract-embedding", r.URL.Path)

		file, _, err := r.FormFile("audio")
		require.NoError(t, err)
		file.Close()

		json.NewEncoder(w).Encode(map[string]any{
			"file_id":       "emb-42",
			"embedding":     []float64{0.1, 0.2, 0.3},
			"feature_count": 3,
		})
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, 2*time.Second)
	emb, err := extractor.Extract(context.Background(), audioSample())
	require.NoError(t, err)
	assert.Equal(t, "emb-42", emb.ID)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, emb.Vector)
	assert.Equal(t, 3, emb.FeatureCount)
}

func TestHTTPExtractorNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, 2*time.Second)
	_, err := extractor.Extract(context.Background(), audioSample())
	assert.Error(t, err)
}

func TestHTTPExtractorMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, 2*time.Second)
	_, err := extractor.Extract(context.Background(), audioSample())
	assert.Error(t, err)
}

func TestHTTPExtractorEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"file_id": "emb-1", "embedding": []float64{}})
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, 2*time.Second)
	_, err := extractor.Extract(context.Background(), audioSample())
	assert.Error(t, err)
}
