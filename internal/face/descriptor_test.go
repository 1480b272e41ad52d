package face

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Descriptor
		want float64
	}{
		{
			name: "identical",
			a:    Descriptor{0.5, 0.5, 0.5},
			b:    Descriptor{0.5, 0.5, 0.5},
			want: 0,
		},
		{
			name: "near match",
			a:    Descriptor{0, 0, 0},
			b:    Descriptor{0.1, 0.1, 0.1},
			want: 0.17320508,
		},
		{
			name: "far apart",
			a:    Descriptor{0, 0, 0},
			b:    Descriptor{5, 5, 5},
			want: 8.66025403,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 1e-6)
		})
	}
}

func TestDistanceEmptyNeverMatches(t *testing.T) {
	assert.True(t, math.IsInf(Distance(nil, Descriptor{1, 2, 3}), 1))
	assert.True(t, math.IsInf(Distance(Descriptor{1, 2, 3}, nil), 1))
	assert.True(t, math.IsInf(Distance(nil, nil), 1))
}

func TestSimilarity(t *testing.T) {
	// the canonical near-match scenario shown to clients as "83%"
	d := Distance(Descriptor{0, 0, 0}, Descriptor{0.1, 0.1, 0.1})
	assert.Equal(t, 83, Similarity(d))
}

func TestEncodeDecode(t *testing.T) {
	assert.Equal(t, "[]", Encode(nil))
	assert.Nil(t, Decode(""))
	assert.Nil(t, Decode("[]"))
	assert.Nil(t, Decode("not json"))

	d := Descriptor{0.25, -0.5, 1}
	assert.Equal(t, d, Decode(Encode(d)))
}
