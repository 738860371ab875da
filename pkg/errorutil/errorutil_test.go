package errorutil

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFromError(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CodeSuccess},
		{"plain", base, CodeInternalErr},
		{"coded", NewExitError(CodeIOError, base), CodeIOError},
		{"wrapped", fmt.Errorf("ctx: %w", NewExitError(CodeSSHError, base)), CodeSSHError},
		{"cmd failure", NewCmdFailure(1, "lsusb 失败", base), CodeCmdFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFromError(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewExitErrorWithMessage(CodeConfigError, "读取 usb.ids 失败", exec.ErrNotFound)
	assert.Equal(t, "读取 usb.ids 失败: "+exec.ErrNotFound.Error(), err.Error())
	assert.Equal(t, "读取 usb.ids 失败", UserMessage(fmt.Errorf("wrap: %w", err)))
	assert.ErrorIs(t, err, exec.ErrNotFound)

	assert.Equal(t, "Exit with code: 64", (&ExitErrorWithCode{Code: CodeInvalidUsage}).Error())
	assert.Empty(t, UserMessage(errors.New("x")))
}
