package main

import (
	"fmt"
	"os"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
	"github.com/mohdismailmatasin/usbview/pkg/logutil"
)

const TOOL_VERSION = "1.0.0+20261016"

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		logutil.Info("命令执行失败: %v", err)
		fmt.Fprintln(os.Stderr, "usbview:", err)
	}

	// 不要用defer，因为defer是在函数返回前执行的，而不是os.Exit()执行前执行
	logutil.CloseLogger()
	os.Exit(errorutil.ExitCodeFromError(err))
}
