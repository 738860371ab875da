package export

import (
	"fmt"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
)

// JSON 把 forest 导出成 {"buses": [...]}，子节点放在 children 数组里
// 缺失的字段不输出
func JSON(forest usb.Forest) ([]byte, error) {
	doc := []byte(`{"buses":[]}`)
	for _, bus := range forest {
		raw, err := nodeJSON(bus)
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "buses.-1", raw); err != nil {
			return nil, fmt.Errorf("写入总线 %s 失败: %w", bus.RawLabel, err)
		}
	}
	return pretty.Pretty(doc), nil
}

type setter struct {
	doc []byte
	err error
}

func (s *setter) set(path string, value any) {
	if s.err != nil {
		return
	}
	s.doc, s.err = sjson.SetBytes(s.doc, path, value)
}

func (s *setter) setRaw(path string, raw []byte) {
	if s.err != nil {
		return
	}
	s.doc, s.err = sjson.SetRawBytes(s.doc, path, raw)
}

func (s *setter) setString(path, value string) {
	if value != "" {
		s.set(path, value)
	}
}

func (s *setter) setInt(path string, value *int) {
	if value != nil {
		s.set(path, *value)
	}
}

func (s *setter) setOptional(path string, value *string) {
	if value != nil {
		s.set(path, *value)
	}
}

func nodeJSON(n *usb.Node) ([]byte, error) {
	s := &setter{doc: []byte(`{}`)}
	s.set("kind", n.Kind.String())
	s.set("depth", n.Depth)
	s.set("label", n.RawLabel)
	s.setInt("bus", n.Bus)
	s.setInt("device", n.Device)
	s.setInt("port", n.Port)
	s.setString("vendor_id", n.VendorID)
	s.setString("product_id", n.ProductID)
	s.setString("description", n.Description)
	s.setString("speed_mbps", n.Speed)
	s.setString("class", n.DeviceClass)
	s.setString("driver", n.Driver)
	if len(n.Interfaces) > 0 {
		s.setRaw("interfaces", []byte(`[]`))
		for _, iface := range n.Interfaces {
			obj := &setter{doc: []byte(`{}`)}
			obj.set("number", iface.Number)
			obj.setString("class", iface.Class)
			obj.setString("driver", iface.Driver)
			if obj.err != nil {
				s.err = obj.err
				break
			}
			s.setRaw("interfaces.-1", obj.doc)
		}
	}
	if d := n.Detail; d != nil {
		s.setOptional("detail.manufacturer", d.Manufacturer)
		s.setOptional("detail.product", d.Product)
		s.setOptional("detail.serial", d.Serial)
		s.setOptional("detail.description", d.Description)
		s.setOptional("detail.class", d.DeviceClass)
		s.setOptional("detail.usb_version", d.USBVersion)
		s.setOptional("detail.max_power", d.MaxPower)
		s.setString("detail.vendor_name", d.VendorName)
	}
	s.setRaw("children", []byte(`[]`))
	if s.err != nil {
		return nil, fmt.Errorf("生成节点 %q 失败: %w", n.RawLabel, s.err)
	}

	for _, c := range n.Children {
		raw, err := nodeJSON(c)
		if err != nil {
			return nil, err
		}
		s.setRaw("children.-1", raw)
	}
	return s.doc, s.err
}
