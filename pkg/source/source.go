package source

import (
	"io"
)

// 两种调用模式对应的 lsusb 参数
var (
	TopologyArgs = []string{"lsusb", "-tv"}
	// 老版本 usbutils 的 -t 不接受 -v
	TopologyFallbackArgs = []string{"lsusb", "-t"}
	VerboseArgs          = []string{"lsusb", "-v"}
)

// Source 提供两种模式的原始文本，以及读取辅助文件（usb.ids）
// 同一个 Source 的调用是顺序的，不要求并发安全
type Source interface {
	Topology() (string, error)
	Verbose() (string, error)
	Open(path string) (io.ReadCloser, error)
	Close() error
}
