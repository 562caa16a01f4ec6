package voice

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Print is a captured voice embedding. The vector is the working form; the
// serialized form rides along for persistence and back-compat with records
// written by the legacy system. A print is immutable once captured;
// re-enrollment replaces it wholesale.
type Print struct {
	Vector []float64
	Serial string
}

// NewPrint builds a print from a raw vector, deriving the serial form.
func NewPrint(vector []float64) Print {
	return Print{Vector: vector, Serial: Serialize(vector)}
}

// ParsePrint rebuilds a print from its serialized form.
func ParsePrint(serial string) (Print, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return Print{}, fmt.Errorf("empty voice print")
	}
	parts := strings.Split(serial, ",")
	vector := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Print{}, fmt.Errorf("parse voice print component %d: %w", i, err)
		}
		vector[i] = v
	}
	return Print{Vector: vector, Serial: serial}, nil
}

// Serialize joins vector components with commas, the storage wire form.
func Serialize(vector []float64) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Empty reports whether the print carries no data.
func (p Print) Empty() bool {
	return len(p.Vector) == 0 && strings.TrimSpace(p.Serial) == ""
}

// CosineSimilarity computes the normalized dot product of two equal-length
// vectors. A zero-magnitude vector has no direction to compare, so it is an
// error rather than a silent divide-by-zero.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}
	return dot / denom, nil
}
