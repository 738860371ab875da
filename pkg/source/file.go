package source

import (
	"fmt"
	"io"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
)

// File 读取事先保存的 lsusb 输出，VerbosePath 为空时详细文本为空
type File struct {
	TopologyPath string
	VerbosePath  string
}

func (f *File) Topology() (string, error) {
	return readAll(f.TopologyPath)
}

func (f *File) Verbose() (string, error) {
	if f.VerbosePath == "" {
		return "", nil
	}
	return readAll(f.VerbosePath)
}

func (f *File) Open(path string) (io.ReadCloser, error) {
	return openLocal(path)
}

func (f *File) Close() error { return nil }

func readAll(path string) (string, error) {
	rc, err := openLocal(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", errorutil.NewExitErrorWithMessage(errorutil.CodeIOError, fmt.Sprintf("读取 %s 失败", path), err)
	}
	return string(data), nil
}
