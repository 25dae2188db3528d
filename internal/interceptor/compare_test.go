package interceptor

import (
	"testing"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	original := logging.Global()
	core, obs := observer.New(zapcore.DebugLevel)
	logging.SetGlobal(zap.New(core))
	t.Cleanup(func() { logging.SetGlobal(original) })

	return obs
}

func strptr(s string) *string { return &s }

func TestCompareResponses(t *testing.T) {
	tests := []struct {
		name       string
		captured   []byte
		shadowBody *string
		want       ComparisonResult
		wantLog    string
	}{
		{
			name:       "match",
			captured:   []byte("<x/>"),
			shadowBody: strptr("<x/>"),
			want:       ComparisonMatch,
			wantLog:    "Responses match.",
		},
		{
			name:       "mismatch",
			captured:   []byte("<x/>"),
			shadowBody: strptr("<y/>"),
			want:       ComparisonMismatch,
			wantLog:    "Responses DO NOT match.",
		},
		{
			name:       "both empty",
			captured:   nil,
			shadowBody: nil,
			want:       ComparisonBothEmpty,
			wantLog:    "Both responses are null/empty",
		},
		{
			name:       "both empty string and empty bytes",
			captured:   []byte{},
			shadowBody: strptr(""),
			want:       ComparisonBothEmpty,
			wantLog:    "Both responses are null/empty",
		},
		{
			name:       "only legacy empty",
			captured:   nil,
			shadowBody: strptr("<x/>"),
			want:       ComparisonOneEmpty,
			wantLog:    "One response is null/empty, the other is not",
		},
		{
			name:       "only shadow empty",
			captured:   []byte("<x/>"),
			shadowBody: nil,
			want:       ComparisonOneEmpty,
			wantLog:    "One response is null/empty, the other is not",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := observeLogs(t)

			if got := CompareResponses(tt.captured, tt.shadowBody); got != tt.want {
				t.Errorf("CompareResponses = %v, want %v", got, tt.want)
			}

			if n := len(obs.FilterMessage(tt.wantLog).All()); n != 1 {
				t.Errorf("expected exactly one %q log, got %d", tt.wantLog, n)
			}
		})
	}
}

func TestCompareResponsesInvalidUTF8(t *testing.T) {
	obs := observeLogs(t)

	got := CompareResponses([]byte{0xff, 0xfe, 0xfd}, strptr("<x/>"))
	if got != ComparisonSkipped {
		t.Errorf("invalid UTF-8 should skip comparison, got %v", got)
	}

	if n := obs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Errorf("expected one error log, got %d", n)
	}
	for _, msg := range []string{"Responses match.", "Responses DO NOT match."} {
		if obs.FilterMessage(msg).Len() != 0 {
			t.Errorf("no %q log expected", msg)
		}
	}
}

func TestComparisonResultString(t *testing.T) {
	tests := []struct {
		result ComparisonResult
		want   string
	}{
		{ComparisonSkipped, "skipped"},
		{ComparisonBothEmpty, "both_empty"},
		{ComparisonOneEmpty, "one_empty"},
		{ComparisonMatch, "match"},
		{ComparisonMismatch, "mismatch"},
	}
	for _, tt := range tests {
		if got := tt.result.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.result, got, tt.want)
		}
	}
}
