package score_test

import (
	"math"
	"testing"

	"github.com/vietspeak-ai/vietspeak/internal/score"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		similarity float64
		want       score.PronunciationScore
	}{
		{
			name:       "perfect match",
			similarity: 1.0,
			want:       score.PronunciationScore{Overall: 100, Accuracy: 95, Fluency: 90, Completeness: 100},
		},
		{
			name:       "no match",
			similarity: 0.0,
			want:       score.PronunciationScore{},
		},
		{
			name:       "partial match",
			similarity: 0.8,
			want:       score.PronunciationScore{Overall: 80, Accuracy: 76, Fluency: 72, Completeness: 80},
		},
		{
			name:       "rounds to one decimal",
			similarity: 0.8567,
			want:       score.PronunciationScore{Overall: 85.7, Accuracy: 81.4, Fluency: 77.1, Completeness: 85.7},
		},
		{
			name:       "clamps below zero",
			similarity: -0.5,
			want:       score.PronunciationScore{},
		},
		{
			name:       "clamps above one",
			similarity: 1.7,
			want:       score.PronunciationScore{Overall: 100, Accuracy: 95, Fluency: 90, Completeness: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := score.Synthesize(tt.similarity)
			if got != tt.want {
				t.Errorf("Synthesize(%v) = %+v, want %+v", tt.similarity, got, tt.want)
			}
		})
	}
}

func TestSynthesizeBounds(t *testing.T) {
	t.Parallel()

	for s := -1.0; s <= 2.0; s += 0.01 {
		got := score.Synthesize(s)
		for dim, v := range map[string]float64{
			"overall":      got.Overall,
			"accuracy":     got.Accuracy,
			"fluency":      got.Fluency,
			"completeness": got.Completeness,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("Synthesize(%v): %s = %v out of [0, 100]", s, dim, v)
			}
		}
		if got.Accuracy > got.Overall || got.Fluency > got.Overall {
			t.Fatalf("Synthesize(%v): dimensions exceed overall: %+v", s, got)
		}
		if d := got.Overall*10 - math.Round(got.Overall*10); math.Abs(d) > 1e-9 {
			t.Fatalf("Synthesize(%v): overall %v not rounded to one decimal", s, got.Overall)
		}
	}
}
