package usb

import (
	"regexp"
	"strings"

	"github.com/google/btree"

	"github.com/mohdismailmatasin/usbview/pkg/logutil"
)

// 详细模式的段头: Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
var reVerboseHeader = regexp.MustCompile(`^\s*Bus\s+\S+\s+Device\b`)

var reHeaderDesc = regexp.MustCompile(`:\s*ID\s+[0-9a-fA-F]{4}:[0-9a-fA-F]{4}\s*(.*)$`)

type detailEntry struct {
	key    Key
	record *DetailRecord
}

// DetailIndex 按关联键有序保存详细记录
type DetailIndex struct {
	tree *btree.BTreeG[*detailEntry]
}

func NewDetailIndex() *DetailIndex {
	return &DetailIndex{
		tree: btree.NewG(2, func(a, b *detailEntry) bool { return a.key.Less(b.key) }),
	}
}

func (d *DetailIndex) Get(key Key) (*DetailRecord, bool) {
	if d == nil || d.tree == nil {
		return nil, false
	}
	e, ok := d.tree.Get(&detailEntry{key: key})
	if !ok {
		return nil, false
	}
	return e.record, true
}

func (d *DetailIndex) Len() int {
	if d == nil || d.tree == nil {
		return 0
	}
	return d.tree.Len()
}

// Ascend 按 (bus, device) 升序遍历，fn 返回 false 时停止
func (d *DetailIndex) Ascend(fn func(Key, *DetailRecord) bool) {
	if d == nil || d.tree == nil {
		return
	}
	d.tree.Ascend(func(e *detailEntry) bool {
		return fn(e.key, e.record)
	})
}

// 取不到就新建，重复的段头合并到同一条记录
func (d *DetailIndex) upsert(key Key) *DetailRecord {
	if rec, ok := d.Get(key); ok {
		return rec
	}
	rec := &DetailRecord{}
	d.tree.ReplaceOrInsert(&detailEntry{key: key, record: rec})
	return rec
}

// fieldRule 一个字段标签前缀，extract 从去掉前缀后的剩余部分取值
type fieldRule struct {
	prefix  string
	field   func(*DetailRecord) **string
	extract func(rest string) string
}

// 带索引的描述符字段: "iProduct   2 2.4G Receiver"，索引后面才是字符串
func afterIndex(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return ""
	}
	idx := strings.Index(rest, fields[0]) + len(fields[0])
	return strings.TrimSpace(rest[idx:])
}

func afterColon(rest string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
}

func plainValue(rest string) string {
	return strings.TrimSpace(rest)
}

// 按顺序匹配，长前缀在前
var verboseFields = []fieldRule{
	{"imanufacturer", func(r *DetailRecord) **string { return &r.Manufacturer }, afterIndex},
	{"iproduct", func(r *DetailRecord) **string { return &r.Product }, afterIndex},
	{"iserial", func(r *DetailRecord) **string { return &r.Serial }, afterIndex},
	{"manufacturer:", func(r *DetailRecord) **string { return &r.Manufacturer }, afterColon},
	{"product:", func(r *DetailRecord) **string { return &r.Product }, afterColon},
	{"serial number:", func(r *DetailRecord) **string { return &r.Serial }, afterColon},
	{"serial:", func(r *DetailRecord) **string { return &r.Serial }, afterColon},
	{"bdeviceclass", func(r *DetailRecord) **string { return &r.DeviceClass }, deviceClass},
	{"bcdusb", func(r *DetailRecord) **string { return &r.USBVersion }, plainValue},
	{"maxpower", func(r *DetailRecord) **string { return &r.MaxPower }, plainValue},
}

// bDeviceClass 0 表示类别由接口定义，不算设备级信息
func deviceClass(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 || fields[0] == "0" {
		return ""
	}
	return afterIndex(rest)
}

// ParseVerbose 把 lsusb -v 的输出解析成 DetailIndex，不会失败
func ParseVerbose(text string) *DetailIndex {
	index := NewDetailIndex()
	var cur *DetailRecord
	for raw := range strings.SplitSeq(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if reVerboseHeader.MatchString(line) {
			cur = nil
			bus, dev := parseInt(reBusNum, line), parseInt(reDevNum, line)
			if bus == nil || dev == nil {
				logutil.Debug("段头编号无法解析，跳过整段: %q", line)
				continue
			}
			cur = index.upsert(Key{Bus: *bus, Device: *dev})
			if m := reHeaderDesc.FindStringSubmatch(line); m != nil && m[1] != "" {
				setOnce(&cur.Description, strings.TrimSpace(m[1]))
			}
			continue
		}
		if cur == nil {
			continue
		}
		applyField(cur, line)
	}
	logutil.Debug("详细信息解析完成: %d 个设备", index.Len())
	return index
}

func applyField(rec *DetailRecord, line string) {
	trimmed := strings.TrimSpace(line)
	for _, rule := range verboseFields {
		if len(trimmed) < len(rule.prefix) || !strings.EqualFold(trimmed[:len(rule.prefix)], rule.prefix) {
			continue
		}
		setOnce(rule.field(rec), rule.extract(trimmed[len(rule.prefix):]))
		return
	}
}

// setOnce 已有值时不覆盖，空值不写入
func setOnce(dst **string, value string) {
	if *dst != nil || value == "" {
		return
	}
	*dst = strPtr(value)
}
