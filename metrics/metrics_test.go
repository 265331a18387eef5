package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/google/ritm-acceptor/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "nil",
		},
		{
			name: "plain words",
			err:  errors.New("spawn failed"),
			want: "spawn_failed",
		},
		{
			name: "punctuation stripped",
			err:  errors.New("exec: \"qemu\": not found"),
			want: "exec_qemu_not_found",
		},
		{
			name: "digits stripped",
			err:  errors.New("exit status 101"),
			want: "exit_status_",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errToLabel(tt.err))
		})
	}
}

func TestIsValidVerdict(t *testing.T) {
	assert.True(t, isValidVerdict(types.VerdictPassed))
	assert.True(t, isValidVerdict(types.VerdictFailed))
	assert.True(t, isValidVerdict(types.VerdictTimedOut))
	assert.True(t, isValidVerdict(types.VerdictExitedWithoutMarker))
	assert.False(t, isValidVerdict(types.VerdictPending))
	assert.False(t, isValidVerdict(types.Verdict("bogus")))
}

func TestRecordersDoNotPanic(t *testing.T) {
	RecordError("test_error")
	RecordErrorDetails("spawn failed", errors.New("no such file"))
	RecordErrorDetails("ignored", nil)
	RecordBuildStep("run-1", "cargo-build", true)
	RecordBuildStep("run-1", "make-image", false)
	RecordRun("run-1", types.VerdictPassed, 3*time.Second, time.Second)
	RecordRun("run-1", types.VerdictPending, 0, 0)
}
