package errors_test

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Failed to configure timer wakeup", f.New(errors.ErrWakeupConfig).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "Failed to read monotonic clock: boom",
		f.Wrap(errors.ErrClockRead, stderrors.New("boom")).Error())
	assert.Equal(t, "Invalid argument provided: 42", f.WithData(errors.ErrInvalidArgument, 42).Error())
	assert.Equal(t, "made_up_code", f.New(errors.ErrorCode("made_up_code")).Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("device busy")
	err := errors.New().Wrap(errors.ErrSleepEntry, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, errors.ErrSleepEntry, errors.CodeOf(err))
}

func TestIsMatchesCode(t *testing.T) {
	f := errors.New()
	err := f.Wrap(errors.ErrMainLoop, f.Wrap(errors.ErrWakeupConfig, stderrors.New("EINVAL")))

	assert.True(t, errors.Is(err, f.New(errors.ErrWakeupConfig)))
	assert.False(t, errors.Is(err, f.New(errors.ErrClockRead)))
	assert.Equal(t, errors.ErrMainLoop, errors.CodeOf(err))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}

func TestWithMessagePreservesData(t *testing.T) {
	err := errors.New().WithData(errors.ErrClockRead, "before=2 after=1").WithMessage("clock went backwards")

	assert.Equal(t, errors.ErrClockRead, err.Code())
	assert.Equal(t, "before=2 after=1", err.GetData())
	assert.Equal(t, "clock went backwards: before=2 after=1", err.Error())
}
