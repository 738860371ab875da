package source

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
)

// 每个场景两份文件: <name>.topology.txt 和 <name>.verbose.txt
//
//go:embed scenarios/*.txt
var scenarioFS embed.FS

const topologySuffix = ".topology.txt"

// Scenarios 返回所有内置场景名，按字母排序
func Scenarios() []string {
	entries, _ := fs.ReadDir(scenarioFS, "scenarios")
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), topologySuffix); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Mock 用内置的 lsusb 输出代替真实命令，用于演示和测试
type Mock struct {
	Scenario string
}

func NewMock(scenario string) (*Mock, error) {
	if !slices.Contains(Scenarios(), scenario) {
		return nil, errorutil.NewExitErrorWithMessage(
			errorutil.CodeInvalidUsage,
			fmt.Sprintf("未知 mock 场景：%s（可选: %s）", scenario, strings.Join(Scenarios(), ", ")),
			nil,
		)
	}
	return &Mock{Scenario: scenario}, nil
}

func (m *Mock) read(suffix string) (string, error) {
	data, err := scenarioFS.ReadFile(path.Join("scenarios", m.Scenario+suffix))
	if err != nil {
		return "", errorutil.NewExitErrorWithMessage(errorutil.CodeInternalErr, "读取内置场景失败", err)
	}
	return string(data), nil
}

func (m *Mock) Topology() (string, error) { return m.read(topologySuffix) }

func (m *Mock) Verbose() (string, error) { return m.read(".verbose.txt") }

func (m *Mock) Open(name string) (io.ReadCloser, error) { return openLocal(name) }

func (m *Mock) Close() error { return nil }
