package usb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/armon/go-radix"
)

// DefaultIDsPaths usb.ids 常见位置
var DefaultIDsPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// 内置的部分厂商表，需要完整数据时用 LoadIDs 加载 usb.ids
var defaultVendors = map[string]string{
	"03f0": "HP, Inc",
	"0403": "Future Technology Devices International Limited",
	"045e": "Microsoft Corporation",
	"046d": "Logitech Inc.",
	"04b3": "IBM Corporation",
	"04e8": "Samsung Electronics Co., Ltd.",
	"0781": "SanDisk Corp.",
	"05ac": "Apple",
	"0bda": "Realtek Semiconductor Corp.",
	"1d6b": "Linux Foundation",
	"8087": "Intel Corp.",
}

// VendorTable 厂商号到名字的只读映射，启动时构建一次，显式传给 Assemble
type VendorTable struct {
	tree *radix.Tree
}

// NewVendorTable 用给定的映射构建，key 统一转成小写
func NewVendorTable(entries map[string]string) *VendorTable {
	t := &VendorTable{tree: radix.New()}
	for vid, name := range entries {
		t.tree.Insert(strings.ToLower(vid), name)
	}
	return t
}

// DefaultVendorTable 内置表
func DefaultVendorTable() *VendorTable {
	return NewVendorTable(defaultVendors)
}

// Len 表中厂商数量
func (t *VendorTable) Len() int {
	if t == nil || t.tree == nil {
		return 0
	}
	return t.tree.Len()
}

// Vendor 查厂商名，查不到返回原始的 vid
func (t *VendorTable) Vendor(vid string) string {
	if t == nil || t.tree == nil || vid == "" {
		return vid
	}
	if v, ok := t.tree.Get(strings.ToLower(vid)); ok {
		return v.(string)
	}
	return vid
}

// LoadIDs 解析 usb.ids 格式，只取厂商行，已有条目会被覆盖
// 厂商行: "xxxx  Vendor Name"，产品行以 tab 开头，直接跳过
func (t *VendorTable) LoadIDs(r io.Reader) (int, error) {
	if t.tree == nil {
		t.tree = radix.New()
	}
	loaded := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 6 || line[0] == '#' || line[0] == '\t' {
			continue
		}
		// 文件后半部分是 "C 09  Hub" 这样的类别表，不是 4 位十六进制，自然跳过
		vid := line[:4]
		if _, err := strconv.ParseUint(vid, 16, 16); err != nil {
			continue
		}
		if line[4] != ' ' {
			continue
		}
		name := strings.TrimSpace(line[5:])
		if name == "" {
			continue
		}
		t.tree.Insert(strings.ToLower(vid), name)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("读取 usb.ids 出错: %w", err)
	}
	return loaded, nil
}
