package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
	"github.com/mohdismailmatasin/usbview/pkg/logutil"
)

// Local 在本机执行 lsusb
type Local struct {
	// 测试时可以换成别的可执行文件
	Command string
}

func NewLocal() *Local {
	return &Local{Command: "lsusb"}
}

func (l *Local) run(args ...string) (stdout, stderr []byte, err error) {
	path, err := exec.LookPath(l.Command)
	if err != nil {
		return nil, nil, errorutil.NewExitErrorWithMessage(
			errorutil.CodeCmdFailed,
			fmt.Sprintf("找不到 %s，请先安装 usbutils", l.Command),
			err,
		)
	}
	var outBuf, errBuf bytes.Buffer
	cmd := exec.Command(path, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	logutil.Debug("执行: %s %s", path, strings.Join(args, " "))
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func cmdFailure(cmdline string, stderr []byte, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errorutil.NewCmdFailure(
			exitErr.ExitCode(),
			fmt.Sprintf("%s 执行失败（ExitCode=%d）：%s", cmdline, exitErr.ExitCode(), strings.TrimSpace(string(stderr))),
			err,
		)
	}
	var coded *errorutil.ExitErrorWithCode
	if errors.As(err, &coded) {
		return err
	}
	return errorutil.NewExitErrorWithMessage(errorutil.CodeCmdFailed, cmdline+" 无法执行", err)
}

func (l *Local) Topology() (string, error) {
	out, stderr, err := l.run(TopologyArgs[1:]...)
	if err == nil {
		return string(out), nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return "", cmdFailure(l.Command+" -tv", stderr, err)
	}
	logutil.Warn("%s -tv 失败，改用 -t: %s", l.Command, strings.TrimSpace(string(stderr)))
	out, stderr, err = l.run(TopologyFallbackArgs[1:]...)
	if err != nil {
		return "", cmdFailure(l.Command+" -t", stderr, err)
	}
	return string(out), nil
}

// Verbose 非 root 时 lsusb -v 会对部分设备报错但仍有输出，有输出就用
func (l *Local) Verbose() (string, error) {
	out, stderr, err := l.run(VerboseArgs[1:]...)
	if err != nil {
		if len(out) > 0 {
			logutil.Warn("%s -v 部分失败，使用已有输出: %v", l.Command, err)
			return string(out), nil
		}
		return "", cmdFailure(l.Command+" -v", stderr, err)
	}
	return string(out), nil
}

func (l *Local) Open(path string) (io.ReadCloser, error) {
	return openLocal(path)
}

func (l *Local) Close() error { return nil }

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		code := errorutil.CodeIOError
		if errors.Is(err, os.ErrNotExist) {
			code = errorutil.CodeMissingInput
		}
		return nil, errorutil.NewExitErrorWithMessage(code, fmt.Sprintf("无法打开 %s", path), err)
	}
	return f, nil
}
