package domain

// Bucket labels as the evaluation prompt defines them. The classifier
// re-derives the bucket from the fit score locally instead of trusting the
// evaluator's own bucket field, which drifts from these thresholds.
const (
	BucketRocket   = "🚀 Green-Room Rocket"  // top tier, strictly above 90
	BucketCall     = "⚡ Book-the-Call"      // strong candidate, 80-89
	BucketProspect = "🛠️ Bench Prospect"     // potential with gaps, 65-79
	BucketArchive  = "🗄️ Swipe-Left Archive" // not a fit, below 65
)

// ClassifyFit maps a fit score to its bucket. Total over all inputs; a
// missing score (zero value) falls through to the archive bucket.
func ClassifyFit(score int) string {
	switch {
	case score > 90:
		return BucketRocket
	case score >= 80:
		return BucketCall
	case score >= 65:
		return BucketProspect
	default:
		return BucketArchive
	}
}
