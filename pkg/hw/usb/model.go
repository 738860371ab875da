package usb

import (
	"fmt"
)

// Kind 节点类型，封闭集合
type Kind int

const (
	KindBus Kind = iota
	KindRootHub
	KindPort
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindBus:
		return "bus"
	case KindRootHub:
		return "root_hub"
	case KindPort:
		return "port"
	case KindDevice:
		return "device"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Key 是拓扑节点与详细记录的关联键
type Key struct {
	Bus    int
	Device int
}

func (k Key) Less(o Key) bool {
	if k.Bus != o.Bus {
		return k.Bus < o.Bus
	}
	return k.Device < o.Device
}

func (k Key) String() string {
	return fmt.Sprintf("%03d:%03d", k.Bus, k.Device)
}

// Interface 对应 lsusb -t 里同一设备的一行 "If n"
type Interface struct {
	Number int
	Class  string
	Driver string
}

// Node 树上的一个元素
// 字符串字段为空表示源文本里没有，整数字段用指针区分缺失
type Node struct {
	Kind     Kind
	Depth    int
	RawLabel string

	Bus    *int
	Device *int
	Port   *int

	VendorID    string
	ProductID   string
	Description string

	Speed       string // Mbit/s，原样保留，比如 "480"、"1.5"
	DeviceClass string
	Driver      string
	Interfaces  []Interface

	Children []*Node
	Detail   *DetailRecord
}

// Key 只有总线号和设备号都存在时才有效
func (n *Node) Key() (Key, bool) {
	if n.Bus == nil || n.Device == nil {
		return Key{}, false
	}
	return Key{Bus: *n.Bus, Device: *n.Device}, true
}

// Walk 先序遍历，fn 返回 false 时停止
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Forest 根是按首次出现顺序排列的 Bus 节点
type Forest []*Node

func (f Forest) Walk(fn func(*Node) bool) {
	for _, n := range f {
		if !n.Walk(fn) {
			return
		}
	}
}

// Count 统计节点总数
func (f Forest) Count() int {
	total := 0
	f.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}

// DetailRecord 来自 lsusb -v 的单设备详情，nil 表示源输出里没有这个字段
type DetailRecord struct {
	Manufacturer *string
	Product      *string
	Serial       *string

	Description *string
	DeviceClass *string
	USBVersion  *string
	MaxPower    *string

	// 由 Assemble 根据节点的 VendorID 填充
	VendorName string
}

// DetailField 渲染用的一行详情
type DetailField struct {
	Label string
	Value string
}

// Fields 按固定顺序返回已填充的字段
func (d *DetailRecord) Fields() []DetailField {
	if d == nil {
		return nil
	}
	var out []DetailField
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Manufacturer", d.Manufacturer},
		{"Product", d.Product},
		{"Serial", d.Serial},
		{"Class", d.DeviceClass},
		{"USB", d.USBVersion},
		{"MaxPower", d.MaxPower},
	} {
		if f.value != nil {
			out = append(out, DetailField{Label: f.label, Value: *f.value})
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
