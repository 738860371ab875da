package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
)

const graphName = "usb"

var nodeShapes = map[usb.Kind]string{
	usb.KindBus:     "folder",
	usb.KindRootHub: "box3d",
	usb.KindPort:    "circle",
	usb.KindDevice:  "box",
}

// DOT 把 forest 导出成 graphviz 有向图，节点按先序编号 n0, n1 ...
//
//	usbview --format dot | dot -Tsvg -o usb.svg
func DOT(forest usb.Forest) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(graphName, "rankdir", "LR"); err != nil {
		return "", err
	}

	seq := 0
	var add func(n *usb.Node, parent string) error
	add = func(n *usb.Node, parent string) error {
		id := fmt.Sprintf("n%d", seq)
		seq++
		attrs := map[string]string{
			"label": strconv.Quote(dotLabel(n)),
			"shape": nodeShapes[n.Kind],
		}
		if err := g.AddNode(graphName, id, attrs); err != nil {
			return fmt.Errorf("添加节点 %s 失败: %w", id, err)
		}
		if parent != "" {
			if err := g.AddEdge(parent, id, true, nil); err != nil {
				return fmt.Errorf("添加边 %s -> %s 失败: %w", parent, id, err)
			}
		}
		for _, c := range n.Children {
			if err := add(c, id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, bus := range forest {
		if err := add(bus, ""); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}

// dotLabel 第一行是原始标签，其余每行一个已知字段
func dotLabel(n *usb.Node) string {
	lines := []string{n.RawLabel}
	if n.VendorID != "" {
		lines = append(lines, "ID "+n.VendorID+":"+n.ProductID)
	}
	if n.Description != "" {
		lines = append(lines, n.Description)
	}
	if n.Detail != nil {
		for _, f := range n.Detail.Fields() {
			lines = append(lines, f.Label+": "+f.Value)
		}
	}
	return strings.Join(lines, "\n")
}
