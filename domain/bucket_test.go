package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFit(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  string
	}{
		{"zero", 0, BucketArchive},
		{"just below potential", 64, BucketArchive},
		{"potential lower bound", 65, BucketProspect},
		{"potential upper bound", 79, BucketProspect},
		{"strong lower bound", 80, BucketCall},
		{"strong upper bound", 89, BucketCall},
		{"ninety is still strong, not top tier", 90, BucketCall},
		{"top tier starts above ninety", 91, BucketRocket},
		{"perfect score", 100, BucketRocket},
		{"negative score", -5, BucketArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFit(tt.score))
		})
	}
}
