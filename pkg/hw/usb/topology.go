package usb

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/mohdismailmatasin/usbview/pkg/logutil"
)

// lsusb -t 每级 hub 缩进 4 列，tab 按 4 列算
const indentWidth = 4

// 字段提取，每个字段独立匹配，某个失败只影响它自己
var (
	reBusNum   = regexp.MustCompile(`\bBus\s+(\d+)\b`)
	reDevNum   = regexp.MustCompile(`\bDev(?:ice)?\s+(\d+)\b`)
	reDevToken = regexp.MustCompile(`\bDev\b`)
	rePortNum  = regexp.MustCompile(`\bPort\s+(\d+)\b`)
	reIfNum    = regexp.MustCompile(`\bIf\s+(\d+)\b`)
	reClass    = regexp.MustCompile(`\bClass=([^,]*)`)
	reDriver   = regexp.MustCompile(`\bDriver=([^,]*)`)
	reSpeed    = regexp.MustCompile(`,\s*(\d+(?:\.\d+)?)M(?:/x\d+)?\s*$`)
	reID       = regexp.MustCompile(`\bID\s+([0-9a-fA-F]{4}):([0-9a-fA-F]{4})\s*(.*)$`)
)

// lineShape 一种可识别的行形状：识别用的正则 + 构造函数
type lineShape struct {
	name  string
	match *regexp.Regexp
	build func(p *topologyParser, line string)
}

// 封闭的行形状表，按顺序匹配，第一个命中的生效
var topologyShapes = []lineShape{
	// /:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/12p, 480M
	{"bus-header", regexp.MustCompile(`^/:\s*Bus\b`), (*topologyParser).busHeader},
	// Bus 001
	{"bus-title", regexp.MustCompile(`^Bus\s+\d+\s*:?\s*$`), (*topologyParser).busTitle},
	// |__ Port 003: Dev 002, If 0, Class=Human Interface Device, Driver=usbhid, 12M
	{"port", regexp.MustCompile(`^\s*\|__\s*Port\b`), (*topologyParser).port},
	// ID 25a7:fa23 Compx 2.4G Receiver
	{"id", regexp.MustCompile(`^\s+ID\s+[0-9a-fA-F]{4}:`), (*topologyParser).id},
	// Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
	{"listing", regexp.MustCompile(`^\s*Bus\s+\S+\s+Device\b`), (*topologyParser).listing},
}

// topologyParser 只在一次解析内有效
type topologyParser struct {
	forest Forest
	// 当前打开的祖先节点，栈顶是最近的祖先
	stack   *arraystack.Stack
	buses   map[int]*Node
	devices map[Key]*Node
	parents map[*Node]*Node
	curBus  *Node
	lastDev *Node
}

// ParseTopology 把 lsusb -t(v) 的输出解析成 Forest，不会失败，最坏返回空
func ParseTopology(text string) Forest {
	p := &topologyParser{
		stack:   arraystack.New(),
		buses:   make(map[int]*Node),
		devices: make(map[Key]*Node),
		parents: make(map[*Node]*Node),
	}
	for raw := range strings.SplitSeq(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.feed(line)
	}
	logutil.Debug("拓扑解析完成: %d 条总线, %d 个节点", len(p.forest), p.forest.Count())
	return p.forest
}

func (p *topologyParser) feed(line string) {
	for _, s := range topologyShapes {
		if s.match.MatchString(line) {
			logutil.Debug("%s: %q", s.name, line)
			s.build(p, line)
			return
		}
	}
	logutil.Debug("忽略无法识别的行: %q", line)
}

func (p *topologyParser) busHeader(line string) {
	p.openBus(line)
	hub := &Node{
		Kind:     KindRootHub,
		RawLabel: literal(reDevNum, line, strings.TrimSpace(strings.TrimPrefix(line, "/:"))),
		Bus:      p.busNumber(),
		Device:   parseInt(reDevNum, line),
		Port:     parseInt(rePortNum, line),
	}
	annotate(hub, line)
	p.placeDevice(hub, 1)
}

func (p *topologyParser) busTitle(line string) {
	p.openBus(line)
}

func (p *topologyParser) port(line string) {
	if p.curBus == nil {
		logutil.Debug("端口行之前没有总线，忽略: %q", line)
		return
	}
	level := indentLevel(line)
	port := &Node{
		Kind:     KindPort,
		RawLabel: literal(rePortNum, line, "Port"),
		Port:     parseInt(rePortNum, line),
	}

	var dev *Node
	if reDevToken.MatchString(line) {
		dev = &Node{
			Kind:     KindDevice,
			RawLabel: literal(reDevNum, line, "Dev"),
			Bus:      p.busNumber(),
			Device:   parseInt(reDevNum, line),
			Port:     parseInt(rePortNum, line),
		}
		annotate(dev, line)
		// lsusb -t 每个接口一行，同一设备的后续行只补充接口
		if p.mergeDuplicate(dev) {
			return
		}
	}

	if !p.attach(port, 2*level) {
		return
	}
	if dev == nil {
		p.lastDev = nil
		return
	}
	// 设备总是挂在自己的端口下面
	p.placeDevice(dev, port.Depth+1)
}

// id 行只补充最近一个设备的厂商/产品号，不产生新节点
func (p *topologyParser) id(line string) {
	if p.lastDev == nil {
		return
	}
	m := reID.FindStringSubmatch(line)
	if m == nil {
		return
	}
	if p.lastDev.VendorID == "" {
		p.lastDev.VendorID = strings.ToLower(m[1])
		p.lastDev.ProductID = strings.ToLower(m[2])
	}
	if p.lastDev.Description == "" {
		p.lastDev.Description = strings.TrimSpace(m[3])
	}
}

func (p *topologyParser) listing(line string) {
	if num := parseInt(reBusNum, line); num != nil {
		if p.curBus == nil || p.curBus.Bus == nil || *p.curBus.Bus != *num {
			p.openBus(line)
		}
	}
	if p.curBus == nil {
		return
	}
	dev := &Node{
		Kind:     KindDevice,
		RawLabel: strings.TrimSpace(line),
		Bus:      p.busNumber(),
		Device:   parseInt(reDevNum, line),
	}
	annotate(dev, line)
	if p.mergeDuplicate(dev) {
		return
	}
	if p.placeDevice(dev, 2*indentLevel(line)+1) && isRootHub(dev, p.parents[dev]) {
		dev.Kind = KindRootHub
	}
}

// 直接挂在总线下，并且是 1 号设备或描述里写明 root hub
func isRootHub(dev, parent *Node) bool {
	if parent == nil || parent.Kind != KindBus {
		return false
	}
	if dev.Device != nil && *dev.Device == 1 {
		return true
	}
	return strings.Contains(strings.ToLower(dev.Description), "root hub")
}

// openBus 切换到行里的总线，同号总线复用已有节点
func (p *topologyParser) openBus(line string) {
	num := parseInt(reBusNum, line)
	var bus *Node
	if num != nil {
		bus = p.buses[*num]
	}
	if bus == nil {
		bus = &Node{
			Kind:     KindBus,
			RawLabel: literal(reBusNum, line, "Bus"),
			Bus:      num,
		}
		if num != nil {
			p.buses[*num] = bus
		}
		p.forest = append(p.forest, bus)
	}
	p.stack.Clear()
	p.stack.Push(bus)
	p.curBus = bus
	p.lastDev = nil
}

func (p *topologyParser) busNumber() *int {
	if p.curBus == nil || p.curBus.Bus == nil {
		return nil
	}
	return intPtr(*p.curBus.Bus)
}

// attach 弹出深度不小于 implied 的祖先后挂到栈顶，深度总是父节点+1
func (p *topologyParser) attach(n *Node, implied int) bool {
	implied = max(implied, 1)
	for !p.stack.Empty() {
		top, _ := p.stack.Peek()
		if top.(*Node).Depth < implied {
			break
		}
		p.stack.Pop()
	}
	top, ok := p.stack.Peek()
	if !ok {
		return false
	}
	parent := top.(*Node)
	n.Depth = parent.Depth + 1
	if n.Depth != implied {
		logutil.Debug("缩进不连续: %q 推断深度 %d, 修正为 %d", n.RawLabel, implied, n.Depth)
	}
	parent.Children = append(parent.Children, n)
	p.parents[n] = parent
	p.stack.Push(n)
	return true
}

func (p *topologyParser) placeDevice(n *Node, implied int) bool {
	if p.mergeDuplicate(n) {
		return false
	}
	if !p.attach(n, implied) {
		return false
	}
	if key, ok := n.Key(); ok {
		p.devices[key] = n
	}
	p.lastDev = n
	return true
}

// mergeDuplicate 关联键已经存在时把新行合并进去，并重新打开它的祖先链
func (p *topologyParser) mergeDuplicate(n *Node) bool {
	key, ok := n.Key()
	if !ok {
		return false
	}
	prev, dup := p.devices[key]
	if !dup {
		return false
	}
	prev.Interfaces = append(prev.Interfaces, n.Interfaces...)
	if prev.DeviceClass == "" {
		prev.DeviceClass = n.DeviceClass
	}
	if prev.Driver == "" {
		prev.Driver = n.Driver
	}
	if prev.Speed == "" {
		prev.Speed = n.Speed
	}
	if prev.VendorID == "" && n.VendorID != "" {
		prev.VendorID, prev.ProductID = n.VendorID, n.ProductID
	}

	var chain []*Node
	for x := prev; x != nil; x = p.parents[x] {
		chain = append(chain, x)
	}
	p.stack.Clear()
	for i := len(chain) - 1; i >= 0; i-- {
		p.stack.Push(chain[i])
	}
	p.curBus = chain[len(chain)-1]
	p.lastDev = prev
	return true
}

// annotate 提取行尾的 Class/Driver/速度标注和 ID，各自可选
func annotate(n *Node, line string) {
	class := capture(reClass, line)
	driver := capture(reDriver, line)
	if num := parseInt(reIfNum, line); num != nil {
		n.Interfaces = append(n.Interfaces, Interface{Number: *num, Class: class, Driver: driver})
	}
	n.DeviceClass = class
	n.Driver = driver
	n.Speed = capture(reSpeed, line)
	if m := reID.FindStringSubmatch(line); m != nil {
		n.VendorID = strings.ToLower(m[1])
		n.ProductID = strings.ToLower(m[2])
		n.Description = strings.TrimSpace(m[3])
	}
}

func indentLevel(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += indentWidth
		default:
			return width / indentWidth
		}
	}
	return width / indentWidth
}

func capture(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// literal 返回匹配到的原始文本片段，匹配不到用 fallback
func literal(re *regexp.Regexp, line, fallback string) string {
	if m := re.FindString(line); m != "" {
		return m
	}
	return fallback
}

func parseInt(re *regexp.Regexp, line string) *int {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}
