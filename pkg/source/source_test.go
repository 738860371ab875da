package source

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
)

var (
	_ Source = (*Local)(nil)
	_ Source = (*File)(nil)
	_ Source = (*Mock)(nil)
	_ Source = (*SSH)(nil)
)

func writeFile(t *testing.T, dir, name, content string, perm os.FileMode) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), perm))
	return p
}

func TestScenarios(t *testing.T) {
	assert.Equal(t, []string{"empty", "hub", "multi-bus", "simple"}, Scenarios())
}

func TestMock(t *testing.T) {
	m, err := NewMock("simple")
	require.NoError(t, err)
	defer m.Close()

	topo, err := m.Topology()
	require.NoError(t, err)
	assert.Contains(t, topo, "Bus 001.Port 001: Dev 001")

	verbose, err := m.Verbose()
	require.NoError(t, err)
	assert.Contains(t, verbose, "iManufacturer           1 Compx")

	empty, err := NewMock("empty")
	require.NoError(t, err)
	topo, err = empty.Topology()
	require.NoError(t, err)
	assert.Empty(t, topo)

	_, err = NewMock("nope")
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeInvalidUsage, errorutil.ExitCodeFromError(err))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	topoPath := writeFile(t, dir, "tree.txt", "/:  Bus 001.Port 001: Dev 001\n", 0o644)

	f := &File{TopologyPath: topoPath}
	topo, err := f.Topology()
	require.NoError(t, err)
	assert.Equal(t, "/:  Bus 001.Port 001: Dev 001\n", topo)

	verbose, err := f.Verbose()
	require.NoError(t, err)
	assert.Empty(t, verbose, "没有详细文件时为空")

	f.VerbosePath = filepath.Join(dir, "missing.txt")
	_, err = f.Verbose()
	assert.Equal(t, errorutil.CodeMissingInput, errorutil.ExitCodeFromError(err))

	rc, err := f.Open(topoPath)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.NotEmpty(t, data)
}

// fakeLsusb 生成一个按参数输出固定文本的脚本
func fakeLsusb(t *testing.T, script string) *Local {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("需要 sh")
	}
	p := writeFile(t, t.TempDir(), "lsusb", "#!/bin/sh\n"+script, 0o755)
	return &Local{Command: p}
}

func TestLocal(t *testing.T) {
	l := fakeLsusb(t, `case "$1" in
  -tv) echo "tree" ;;
  -v) echo "verbose"; echo "Couldn't open device" >&2; exit 1 ;;
esac
`)
	topo, err := l.Topology()
	require.NoError(t, err)
	assert.Equal(t, "tree\n", topo)

	// 有输出时忽略退出码
	verbose, err := l.Verbose()
	require.NoError(t, err)
	assert.Equal(t, "verbose\n", verbose)
}

func TestLocal_TopologyFallback(t *testing.T) {
	l := fakeLsusb(t, `case "$1" in
  -tv) echo "invalid option" >&2; exit 2 ;;
  -t) echo "old tree" ;;
  *) exit 3 ;;
esac
`)
	topo, err := l.Topology()
	require.NoError(t, err)
	assert.Equal(t, "old tree\n", topo)

	_, err = l.Verbose()
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeCmdFailed, errorutil.ExitCodeFromError(err))
}

func TestLocal_Missing(t *testing.T) {
	l := &Local{Command: filepath.Join(t.TempDir(), "no-such-lsusb")}
	_, err := l.Topology()
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeCmdFailed, errorutil.ExitCodeFromError(err))
	assert.Contains(t, errorutil.UserMessage(err), "usbutils")
}
