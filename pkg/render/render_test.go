package render

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohdismailmatasin/usbview/internal/testutils"
	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
)

const treeText = `/:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/12p, 480M
    ID 1d6b:0002 Linux Foundation 2.0 root hub
    |__ Port 003: Dev 002, If 0, Class=Human Interface Device, Driver=usbhid, 12M
        ID 25a7:fa23 Compx 2.4G Receiver
`

const verboseText = `Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
Device Descriptor:
  Manufacturer: Compx
  Product: 2.4G Receiver
  Serial: 0
`

var reANSI = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func build(topology, verbose string) usb.Forest {
	return usb.Assemble(usb.ParseTopology(topology), usb.ParseVerbose(verbose), nil)
}

func render(style Style, f usb.Forest) string {
	var buf bytes.Buffer
	if err := New(style).Write(&buf, f); err != nil {
		panic(err)
	}
	return buf.String()
}

func TestRender_TreeWithDetails(t *testing.T) {
	want := `=== BUS 001 ===
  [ROOT HUB] Dev 001 ID 1d6b:0002 Linux Foundation 2.0 root hub [Class=root_hub, Driver=xhci_hcd/12p, 480 Mbps (USB 2.0)]
    [PORT] Port 003
      [DEVICE] Dev 002 ID 25a7:fa23 Compx 2.4G Receiver [Class=Human Interface Device, Driver=usbhid, 12 Mbps (USB 1.1)]
        Manufacturer: Compx
        Product:      2.4G Receiver
        Serial:       0
`
	got := render(Style{ShowExtra: true}, build(treeText, verboseText))
	testutils.EqualText(t, want, got)
}

func TestRender_ListingExample(t *testing.T) {
	topology := `Bus 001
Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
    |__ Port 003
        Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
`
	want := `=== BUS 001 ===
  [ROOT HUB] Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
    [PORT] Port 003
      [DEVICE] Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
        Manufacturer: Compx
        Product:      2.4G Receiver
        Serial:       0
`
	got := render(Style{ShowExtra: true}, build(topology, verboseText))
	testutils.EqualText(t, want, got)

	// 设备比根集线器的端口深一级
	lines := strings.Split(got, "\n")
	portIndent := len(lines[2]) - len(strings.TrimLeft(lines[2], " "))
	devIndent := len(lines[3]) - len(strings.TrimLeft(lines[3], " "))
	assert.Equal(t, portIndent+2, devIndent)
}

func TestRender_NoExtra(t *testing.T) {
	got := render(Style{}, build(treeText, verboseText))
	assert.Equal(t, 4, strings.Count(got, "\n"))
	assert.NotContains(t, got, "Manufacturer:")
}

func TestRender_NoMatchingDetail(t *testing.T) {
	verbose := "Bus 004 Device 009: ID ffff:0001 Elsewhere\n  Manufacturer: Nobody\n"
	got := render(Style{ShowExtra: true}, build(treeText, verbose))
	assert.Equal(t, 4, strings.Count(got, "\n"), "没有匹配的详细记录时不输出详情行")
	assert.NotContains(t, got, "Nobody")
}

func TestRender_Empty(t *testing.T) {
	got := slices.Collect(New(Style{ColorEnabled: true, ShowExtra: true}).Lines(nil))
	assert.Equal(t, []string{EmptyMessage}, got)
	assert.Equal(t, EmptyMessage+"\n", render(Style{}, usb.ParseTopology("")))
}

func TestRender_ColorKeepsText(t *testing.T) {
	f := build(treeText, verboseText)
	for _, extra := range []bool{false, true} {
		plain := render(Style{ShowExtra: extra}, f)
		colored := render(Style{ShowExtra: extra, ColorEnabled: true}, f)
		assert.NotContains(t, plain, "\x1b[")
		assert.Contains(t, colored, "\x1b[")
		testutils.EqualText(t, plain, reANSI.ReplaceAllString(colored, ""))
	}
}

func TestRender_Idempotent(t *testing.T) {
	f := build(treeText, verboseText)
	r := New(Style{ShowExtra: true, ColorEnabled: true})
	first := slices.Collect(r.Lines(f))
	second := slices.Collect(r.Lines(f))
	assert.Equal(t, first, second)
}

func TestRender_EarlyStop(t *testing.T) {
	f := build(treeText, verboseText)
	var got []string
	for line := range New(Style{ShowExtra: true}).Lines(f) {
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, "=== BUS 001 ===", got[0])
}

func TestRender_PreOrder(t *testing.T) {
	topology := `/:  Bus 002.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/4p, 5000M
/:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=ehci-pci/2p, 480M
    |__ Port 001: Dev 002, If 0, Class=Hub, Driver=hub/4p, 480M
        |__ Port 002: Dev 003, If 0, Class=Mass Storage, Driver=usb-storage, 480M
    |__ Port 002: Dev 004, If 0, Class=Human Interface Device, Driver=usbhid, 1.5M
`
	lines := slices.Collect(New(Style{}).Lines(usb.ParseTopology(topology)))
	require.Len(t, lines, 10)
	assert.Equal(t, "=== BUS 002 ===", lines[0])
	assert.Equal(t, "  [ROOT HUB] Dev 001 [Class=root_hub, Driver=xhci_hcd/4p, 5 Gbps (USB 3.0)]", lines[1])
	assert.Equal(t, "=== BUS 001 ===", lines[2])
	assert.Equal(t, "        [PORT] Port 002", lines[6])
	assert.Equal(t, "          [DEVICE] Dev 003 [Class=Mass Storage, Driver=usb-storage, 480 Mbps (USB 2.0)]", lines[7])
	assert.Equal(t, "      [DEVICE] Dev 004 [Class=Human Interface Device, Driver=usbhid, 1.5 Mbps (USB 1.0)]", lines[9])
}

func TestRender_VendorNameAndSanitize(t *testing.T) {
	f := usb.ParseTopology("/:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/2p, 480M\n" +
		"    |__ Port 001: Dev 005, If 0, Class=Vendor Specific Class, Driver=ftdi_sio, 12M\n" +
		"        ID 0403:6001 Serial\x1b[31m Converter\n")
	details := usb.ParseVerbose("Bus 001 Device 005: ID 0403:6001\n  iProduct 2 FT232R\x07 USB UART\n")
	usb.Assemble(f, details, nil)

	lines := slices.Collect(New(Style{ShowExtra: true}).Lines(f))
	require.Len(t, lines, 5)
	assert.Equal(t, `      [DEVICE] Dev 005 ID 0403:6001 Serial\x1b[31m Converter (Future Technology Devices International Limited) [Class=Vendor Specific Class, Driver=ftdi_sio, 12 Mbps (USB 1.1)]`, lines[3])
	assert.Equal(t, `        Product: FT232R\x07 USB UART`, lines[4])
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain text", "plain text"},
		{"中文 ok", "中文 ok"},
		{"a\tb", `a\x09b`},
		{"x\x1b[0m", `x\x1b[0m`},
		{"bad\xffbyte", `bad\xffbyte`},
		{"\u0085next", `\x85next`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), "输入 %q", tt.in)
	}
}
