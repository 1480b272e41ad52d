// Package face handles face embedding descriptors. Descriptors arrive
// pre-computed from the client-side recognition model; this package only
// compares and serializes them.
package face

import (
	"encoding/json"
	"math"
)

// Descriptor is a face embedding vector. Length is fixed per model
// (128 for the dlib-style models the frontend ships) but not enforced here.
type Descriptor []float64

// Distance returns the Euclidean distance between two descriptors.
// An empty or nil descriptor never matches anything.
func Distance(a, b Descriptor) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarity converts a match distance to the percentage shown to clients.
func Similarity(distance float64) int {
	return int(math.Round((1 - distance) * 100))
}

// Encode serializes a descriptor for storage. A nil descriptor encodes
// as an empty array so the stored column is never NULL.
func Encode(d Descriptor) string {
	if len(d) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// Decode parses a stored descriptor. Blank or malformed input decodes to nil.
func Decode(raw string) Descriptor {
	if raw == "" || raw == "[]" {
		return nil
	}
	var d Descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil
	}
	return d
}
