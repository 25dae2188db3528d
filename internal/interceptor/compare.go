package interceptor

import (
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

// ComparisonResult classifies the outcome of a shadow comparison.
type ComparisonResult int

const (
	ComparisonSkipped ComparisonResult = iota
	ComparisonBothEmpty
	ComparisonOneEmpty
	ComparisonMatch
	ComparisonMismatch
)

// String returns the metric label for the result.
func (r ComparisonResult) String() string {
	switch r {
	case ComparisonBothEmpty:
		return "both_empty"
	case ComparisonOneEmpty:
		return "one_empty"
	case ComparisonMatch:
		return "match"
	case ComparisonMismatch:
		return "mismatch"
	default:
		return "skipped"
	}
}

// CompareResponses compares the captured legacy response bytes against the
// shadow response body and logs the outcome. shadowBody is nil when the
// shadow call resolved without a response. Comparison is monitoring only; it
// never touches what the client received.
func CompareResponses(captured []byte, shadowBody *string) ComparisonResult {
	var original *string
	if len(captured) > 0 {
		if !utf8.Valid(captured) {
			logging.Error("captured legacy response is not valid UTF-8, skipping comparison")
			return ComparisonSkipped
		}
		s := string(captured)
		original = &s
	}

	switch {
	case isEmpty(original) && isEmpty(shadowBody):
		logging.Info("Both responses are null/empty")
		return ComparisonBothEmpty
	case isEmpty(original) || isEmpty(shadowBody):
		logging.Info("One response is null/empty, the other is not",
			zap.Int("legacy_bytes", byteLen(original)),
			zap.Int("shadow_bytes", byteLen(shadowBody)))
		return ComparisonOneEmpty
	case *original == *shadowBody:
		logging.Info("Responses match.")
		return ComparisonMatch
	default:
		logging.Info("Responses DO NOT match.",
			zap.Uint64("legacy_digest", xxhash.Sum64String(*original)),
			zap.Uint64("shadow_digest", xxhash.Sum64String(*shadowBody)),
			zap.Int("legacy_bytes", len(*original)),
			zap.Int("shadow_bytes", len(*shadowBody)))
		return ComparisonMismatch
	}
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}

func byteLen(s *string) int {
	if s == nil {
		return 0
	}
	return len(*s)
}
