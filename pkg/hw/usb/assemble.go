package usb

import (
	"github.com/mohae/deepcopy"

	"github.com/mohdismailmatasin/usbview/pkg/logutil"
)

// Assemble 给 forest 里能关联上的节点挂上详细记录，原地修改并返回同一个 forest
// 每个节点拿到的是记录的副本，VendorName 按节点自己的 VendorID 解析
// vendors 为 nil 时用内置表
func Assemble(forest Forest, details *DetailIndex, vendors *VendorTable) Forest {
	if vendors == nil {
		vendors = DefaultVendorTable()
	}
	matched := make(map[Key]bool)
	forest.Walk(func(n *Node) bool {
		key, ok := n.Key()
		if !ok {
			return true
		}
		rec, ok := details.Get(key)
		if !ok {
			return true
		}
		cp := deepcopy.Copy(rec).(*DetailRecord)
		cp.VendorName = vendors.Vendor(n.VendorID)
		n.Detail = cp
		matched[key] = true
		return true
	})

	details.Ascend(func(key Key, _ *DetailRecord) bool {
		if !matched[key] {
			logutil.Debug("详细记录 %s 在拓扑里没有对应节点", key.String())
		}
		return true
	})
	logutil.Info("关联详细记录 %d/%d", len(matched), details.Len())
	return forest
}
