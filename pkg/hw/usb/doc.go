/*
USB 拓扑查看说明

一、数据来源
 1. 拓扑模式（topology mode）
      $ lsusb -tv
    输出示例：
      /:  Bus 001.Port 001: Dev 001, Class=root_hub, Driver=xhci_hcd/12p, 480M
          ID 1d6b:0002 Linux Foundation 2.0 root hub
          |__ Port 003: Dev 002, If 0, Class=Human Interface Device, Driver=usbhid, 12M
              ID 25a7:fa23 Compx 2.4G Receiver
    每 4 列缩进代表一级 hub，"|__" 是端口标记，"ID" 行只给上一行的设备补充厂商/产品号。
    老版本 usbutils 不带 -v 时没有 ID 行，解析器照样可以工作，只是缺少 ID 字段。

 2. 详细模式（verbose mode）
      $ lsusb -v
    每个设备一段，段头是：
      Bus 001 Device 002: ID 25a7:fa23 Compx 2.4G Receiver
    后面跟缩进的描述符字段：
      iManufacturer           1 Compx
      iProduct                2 2.4G Receiver
      iSerial                 0
    非 root 用户执行时字符串描述符可能读不到（只有索引没有字符串），这时字段视为缺失。

二、解析流程
   拓扑文本 --ParseTopology--> Forest
   详细文本 --ParseVerbose-->  DetailIndex
   (Forest, DetailIndex, VendorTable) --Assemble--> 带详情的 Forest

三、关联键
   拓扑节点和详细记录用 (Bus, Device) 二元组关联，不能只用设备号：
   不同总线上的设备号会重复（每条总线的 root hub 都是 Dev 001）。

四、容错
   不认识的行直接忽略，某个字段解析失败只影响这个字段，整个解析过程不会报错，
   最坏的情况返回空 Forest。
*/

package usb
