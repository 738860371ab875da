package render

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
)

// EmptyMessage forest 为空时的唯一一行
const EmptyMessage = "No USB buses found."

// 速度(Mbit/s) 到 USB 代际
var speedCategory = map[string]string{
	"5000":  "USB 3.0",
	"10000": "USB 3.1",
	"480":   "USB 2.0",
	"12":    "USB 1.1",
	"1.5":   "USB 1.0",
}

// Style 渲染配置，两个开关互相独立
type Style struct {
	ColorEnabled bool
	ShowExtra    bool
}

type palette struct {
	marker map[usb.Kind]lipgloss.Style
	label  lipgloss.Style
}

// Renderer 只读取 forest，同一个 forest 可以重复渲染
type Renderer struct {
	style   Style
	palette *palette
}

var markers = map[usb.Kind]string{
	usb.KindRootHub: "[ROOT HUB]",
	usb.KindPort:    "[PORT]",
	usb.KindDevice:  "[DEVICE]",
}

func New(style Style) *Renderer {
	r := &Renderer{style: style}
	if style.ColorEnabled {
		// 固定 ANSI 配置，不依赖输出是不是终端
		lr := lipgloss.NewRenderer(io.Discard)
		lr.SetColorProfile(termenv.ANSI)
		bold := lr.NewStyle().Bold(true)
		r.palette = &palette{
			marker: map[usb.Kind]lipgloss.Style{
				usb.KindBus:     bold.Foreground(lipgloss.Color("6")),
				usb.KindRootHub: bold.Foreground(lipgloss.Color("5")),
				usb.KindPort:    bold.Foreground(lipgloss.Color("3")),
				usb.KindDevice:  bold.Foreground(lipgloss.Color("2")),
			},
			label: bold.Foreground(lipgloss.Color("15")),
		}
	}
	return r
}

func (r *Renderer) mark(kind usb.Kind, s string) string {
	if r.palette == nil {
		return s
	}
	return r.palette.marker[kind].Render(s)
}

// Lines 先序遍历产生显示行，调用方停止迭代时立即结束
func (r *Renderer) Lines(forest usb.Forest) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(forest) == 0 {
			yield(EmptyMessage)
			return
		}
		for _, root := range forest {
			if !r.node(root, yield) {
				return
			}
		}
	}
}

// Write 逐行写出，每行以换行结尾
func (r *Renderer) Write(w io.Writer, forest usb.Forest) error {
	for line := range r.Lines(forest) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) node(n *usb.Node, yield func(string) bool) bool {
	if !yield(r.nodeLine(n)) {
		return false
	}
	if r.style.ShowExtra {
		for _, line := range r.detailLines(n) {
			if !yield(line) {
				return false
			}
		}
	}
	for _, c := range n.Children {
		if !r.node(c, yield) {
			return false
		}
	}
	return true
}

func (r *Renderer) nodeLine(n *usb.Node) string {
	if n.Kind == usb.KindBus {
		return r.mark(n.Kind, "=== "+busTitle(n)+" ===")
	}
	return strings.Repeat("  ", n.Depth) + r.mark(n.Kind, markers[n.Kind]) + " " + nodeText(n)
}

func busTitle(n *usb.Node) string {
	if n.Bus != nil {
		return fmt.Sprintf("BUS %03d", *n.Bus)
	}
	return strings.ToUpper(sanitize(n.RawLabel))
}

// nodeText 标签 + ID + 描述 + (厂商名) + [标注]，原始标签里已经有的部分不重复
func nodeText(n *usb.Node) string {
	label := sanitize(n.RawLabel)
	parts := []string{label}

	if n.VendorID != "" {
		id := "ID " + n.VendorID + ":" + n.ProductID
		if !strings.Contains(strings.ToLower(label), strings.ToLower(id)) {
			parts = append(parts, sanitize(id))
		}
	}

	desc := n.Description
	if desc == "" && n.Detail != nil && n.Detail.Description != nil {
		desc = *n.Detail.Description
	}
	if desc = sanitize(desc); desc != "" && !strings.Contains(label, desc) {
		parts = append(parts, desc)
	}

	if n.Detail != nil {
		name := sanitize(n.Detail.VendorName)
		if name != "" && name != n.VendorID && !strings.Contains(strings.Join(parts, " "), name) {
			parts = append(parts, "("+name+")")
		}
	}

	if tags := nodeTags(n); len(tags) > 0 {
		parts = append(parts, "["+strings.Join(tags, ", ")+"]")
	}
	return strings.Join(parts, " ")
}

func nodeTags(n *usb.Node) []string {
	var tags []string
	if n.DeviceClass != "" {
		tags = append(tags, "Class="+sanitize(n.DeviceClass))
	}
	if n.Driver != "" {
		tags = append(tags, "Driver="+sanitize(n.Driver))
	}
	if len(n.Interfaces) > 1 {
		tags = append(tags, fmt.Sprintf("%d interfaces", len(n.Interfaces)))
	}
	if s := formatSpeed(n.Speed); s != "" {
		tags = append(tags, s)
	}
	return tags
}

// formatSpeed 480 -> "480 Mbps (USB 2.0)"，不认识的数值只显示速率
func formatSpeed(mbps string) string {
	if mbps == "" {
		return ""
	}
	v, err := strconv.ParseFloat(mbps, 64)
	if err != nil {
		return sanitize(mbps) + "M"
	}
	text := humanize.SI(v*1e6, "bps")
	if cat, ok := speedCategory[mbps]; ok {
		text += " (" + cat + ")"
	}
	return text
}

// detailLines 标签按显示宽度对齐，颜色只加在标签上，补齐的空格在样式外面
func (r *Renderer) detailLines(n *usb.Node) []string {
	fields := n.Detail.Fields()
	if len(fields) == 0 {
		return nil
	}
	width := 0
	for _, f := range fields {
		width = max(width, runewidth.StringWidth(f.Label)+1)
	}
	indent := strings.Repeat("  ", n.Depth+1)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		label := f.Label + ":"
		pad := strings.Repeat(" ", width-runewidth.StringWidth(label))
		if r.palette != nil {
			label = r.palette.label.Render(label)
		}
		lines = append(lines, indent+label+pad+" "+sanitize(f.Value))
	}
	return lines
}
