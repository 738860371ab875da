package export

import (
	"testing"

	"github.com/awalterschulze/gographviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
)

func sampleForest() usb.Forest {
	f := usb.ParseTopology(`/:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/12p, 480M
    ID 1d6b:0002 Linux Foundation 2.0 root hub
    |__ Port 003: Dev 002, If 0, Class=Human Interface Device, Driver=usbhid, 12M
        ID 25a7:fa23 Compx 2.4G Receiver
    |__ Port 003: Dev 002, If 1, Class=Human Interface Device, Driver=usbhid, 12M
/:  Bus 002.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/4p, 5000M
`)
	details := usb.ParseVerbose(`Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
  iManufacturer 1 Compx
  iProduct 2 "2.4G" Receiver
  iSerial 0
`)
	return usb.Assemble(f, details, nil)
}

func TestJSON(t *testing.T) {
	out, err := JSON(sampleForest())
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(out), string(out))

	assert.Equal(t, int64(2), gjson.GetBytes(out, "buses.#").Int())
	assert.Equal(t, "bus", gjson.GetBytes(out, "buses.0.kind").String())
	assert.Equal(t, int64(2), gjson.GetBytes(out, "buses.1.bus").Int())

	hub := gjson.GetBytes(out, "buses.0.children.0")
	assert.Equal(t, "root_hub", hub.Get("kind").String())
	assert.Equal(t, "1d6b", hub.Get("vendor_id").String())
	assert.Equal(t, "480", hub.Get("speed_mbps").String())
	assert.False(t, hub.Get("detail").Exists())
	assert.False(t, hub.Get("interfaces").Exists())

	dev := hub.Get("children.0.children.0")
	assert.Equal(t, "device", dev.Get("kind").String())
	assert.Equal(t, int64(3), dev.Get("depth").Int())
	assert.Equal(t, int64(3), dev.Get("port").Int())
	assert.Equal(t, []int64{0, 1}, []int64{dev.Get("interfaces.0.number").Int(), dev.Get("interfaces.1.number").Int()})
	assert.Equal(t, "usbhid", dev.Get("interfaces.1.driver").String())
	assert.Equal(t, "Compx", dev.Get("detail.manufacturer").String())
	assert.Equal(t, `"2.4G" Receiver`, dev.Get("detail.product").String())
	assert.False(t, dev.Get("detail.serial").Exists())
	assert.Equal(t, "25a7", dev.Get("detail.vendor_name").String())
	assert.Equal(t, int64(0), dev.Get("children.#").Int())
}

func TestJSON_Empty(t *testing.T) {
	out, err := JSON(nil)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(out))
	assert.True(t, gjson.GetBytes(out, "buses").IsArray())
	assert.Equal(t, int64(0), gjson.GetBytes(out, "buses.#").Int())
}

func TestDOT(t *testing.T) {
	out, err := DOT(sampleForest())
	require.NoError(t, err)

	ast, err := gographviz.Parse([]byte(out))
	require.NoError(t, err, out)
	g := gographviz.NewGraph()
	require.NoError(t, gographviz.Analyse(ast, g))

	// bus1, hub, port, device, bus2, hub
	assert.Len(t, g.Nodes.Nodes, 6)
	assert.Len(t, g.Edges.Edges, 4)
	assert.True(t, g.Directed)

	dev := g.Nodes.Lookup["n3"]
	require.NotNil(t, dev)
	assert.Equal(t, "box", dev.Attrs["shape"])
	assert.Contains(t, dev.Attrs["label"], "Manufacturer: Compx")
	assert.Contains(t, dev.Attrs["label"], `\n`)

	require.Len(t, g.Edges.SrcToDsts["n2"]["n3"], 1)
	assert.Empty(t, g.Edges.DstToSrcs["n4"], "总线是根节点")
}

func TestDOT_Empty(t *testing.T) {
	out, err := DOT(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph usb")
}
