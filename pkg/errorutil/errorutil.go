package errorutil

import (
	"errors"
	"fmt"
)

const (
	CodeSuccess = 0 // 成功执行

	// 60–69: 用户输入或调用错误
	CodeInvalidUsage = 64 // 命令行用法错误（参数不合法等）
	CodeMissingInput = 65 // 缺失必须输入（如文件、路径等）

	// 70–79: 程序自身或依赖错误
	CodeCmdFailed   = 70 // 命令执行失败（lsusb 不存在、退出码非 0）
	CodeSSHError    = 71 // SSH 层错误（连接失败、channel 拒绝等）
	CodeIOError     = 72 // 文件或设备读写失败
	CodeInternalErr = 74 // 内部 bug、未捕捉异常

	// 80–89: 外部配置相关错误
	CodeConfigError = 80 // 配置文件有误或缺失（usb.ids 等）
)

// omitempty 的作用是空字段不出现
type ExitErrorWithCode struct {
	Code        int    `json:"code"`                    // 框架层级错误码
	Message     string `json:"message,omitempty"`       // 可读消息
	CmdExitCode int    `json:"cmd_exit_code,omitempty"` // 原始命令的退出码（仅在执行命令时填充）
	Err         error  `json:"-"`
}

func (e *ExitErrorWithCode) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("Exit with code: %d", e.Code)
}

func (e *ExitErrorWithCode) Unwrap() error {
	return e.Err
}

func NewExitError(code int, err error) error {
	return &ExitErrorWithCode{Code: code, Err: err}
}

// 带错误消息的错误
func NewExitErrorWithMessage(code int, message string, err error) error {
	return &ExitErrorWithCode{Code: code, Message: message, Err: err}
}

// NewCmdFailure 用于构造命令执行失败的结构化错误
func NewCmdFailure(cmdExitCode int, message string, err error) error {
	return &ExitErrorWithCode{
		Code:        CodeCmdFailed, // 框架定义的“命令失败”状态
		CmdExitCode: cmdExitCode,   // 实际命令返回码
		Message:     message,
		Err:         err,
	}
}

// os.Exit(errorutil.ExitCodeFromError(err))
func ExitCodeFromError(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var exitErr *ExitErrorWithCode
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return CodeInternalErr
}

// msg := errorutil.UserMessage(err)
func UserMessage(err error) string {
	var exitErr *ExitErrorWithCode
	if errors.As(err, &exitErr) && exitErr.Message != "" {
		return exitErr.Message
	}
	return ""
}
