package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
	"github.com/mohdismailmatasin/usbview/pkg/export"
	"github.com/mohdismailmatasin/usbview/pkg/hw/usb"
	"github.com/mohdismailmatasin/usbview/pkg/logutil"
	"github.com/mohdismailmatasin/usbview/pkg/render"
	"github.com/mohdismailmatasin/usbview/pkg/source"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatDOT  outputFormat = "dot"
)

// 实现 pflag.Value，VarP 才能接收
var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(val string) error {
	switch outputFormat(val) {
	case formatText, formatJSON, formatDOT:
		*f = outputFormat(val)
		return nil
	default:
		return fmt.Errorf("无效的输出格式: %s (可选 text/json/dot)", val)
	}
}

func (f *outputFormat) Type() string { return "format" }

type options struct {
	noColor bool
	noExtra bool
	format  outputFormat

	idsFile      string
	topologyFile string
	verboseFile  string
	mockScenario string

	ssh source.SSHConfig
}

func (o *options) openSource() (src source.Source, autoIDs bool, err error) {
	switch {
	case o.mockScenario != "" && o.topologyFile != "":
		return nil, false, errorutil.NewExitErrorWithMessage(
			errorutil.CodeInvalidUsage, "--mock-scenario 和 --topology-file 不能同时使用", nil)
	case o.verboseFile != "" && o.topologyFile == "":
		return nil, false, errorutil.NewExitErrorWithMessage(
			errorutil.CodeInvalidUsage, "--verbose-file 需要和 --topology-file 一起使用", nil)
	case o.mockScenario != "":
		m, err := source.NewMock(o.mockScenario)
		return m, false, err
	case o.topologyFile != "":
		return &source.File{TopologyPath: o.topologyFile, VerbosePath: o.verboseFile}, false, nil
	case o.ssh.Host != "":
		s, err := source.DialSSH(o.ssh)
		return s, true, err
	default:
		return source.NewLocal(), true, nil
	}
}

// loadVendors 内置表打底，--ids-file 读失败是错误，自动查找的默认路径读失败只记日志
func (o *options) loadVendors(src source.Source, autoIDs bool) (*usb.VendorTable, error) {
	vendors := usb.DefaultVendorTable()
	paths := usb.DefaultIDsPaths
	if o.idsFile != "" {
		paths = []string{o.idsFile}
	} else if !autoIDs {
		return vendors, nil
	}

	for _, p := range paths {
		rc, err := src.Open(p)
		if err != nil {
			if o.idsFile != "" {
				return nil, errorutil.NewExitErrorWithMessage(errorutil.CodeConfigError, fmt.Sprintf("读取 usb.ids 失败: %s", p), err)
			}
			logutil.Debug("跳过 %s: %v", p, err)
			continue
		}
		n, err := vendors.LoadIDs(rc)
		rc.Close()
		if err != nil {
			return nil, errorutil.NewExitErrorWithMessage(errorutil.CodeConfigError, fmt.Sprintf("解析 usb.ids 失败: %s", p), err)
		}
		logutil.Info("从 %s 加载了 %d 个厂商", p, n)
		return vendors, nil
	}
	return vendors, nil
}

func (o *options) run(out io.Writer) error {
	src, autoIDs, err := o.openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	topoText, err := src.Topology()
	if err != nil {
		return err
	}
	forest := usb.ParseTopology(topoText)

	// 不显示详情时不需要调用 lsusb -v
	details := usb.NewDetailIndex()
	if !o.noExtra {
		verboseText, err := src.Verbose()
		if err != nil {
			logutil.Warn("获取详细信息失败，忽略: %v", err)
		} else {
			details = usb.ParseVerbose(verboseText)
		}

		vendors, err := o.loadVendors(src, autoIDs)
		if err != nil {
			return err
		}
		usb.Assemble(forest, details, vendors)
	}

	switch o.format {
	case formatJSON:
		data, err := export.JSON(forest)
		if err != nil {
			return errorutil.NewExitError(errorutil.CodeInternalErr, err)
		}
		_, err = out.Write(data)
		return err
	case formatDOT:
		dot, err := export.DOT(forest)
		if err != nil {
			return errorutil.NewExitError(errorutil.CodeInternalErr, err)
		}
		_, err = io.WriteString(out, dot)
		return err
	default:
		style := render.Style{ColorEnabled: !o.noColor, ShowExtra: !o.noExtra}
		return render.New(style).Write(out, forest)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{format: formatText}
	var logFile string
	logLevel := logutil.WARN

	cmd := &cobra.Command{
		Use:     "usbview",
		Short:   "以树形方式查看 USB 总线、集线器、端口和设备",
		Version: TOOL_VERSION,
		Long: "以树形方式查看 USB 拓扑，数据来自 lsusb -tv 和 lsusb -v\n\n" +
			"  usbview                               本机\n" +
			"  usbview -H 10.0.0.5 -U root -P xx      远程主机\n" +
			"  usbview --mock-scenario hub            内置场景\n" +
			"  usbview --format dot | dot -Tsvg > usb.svg",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errorutil.NewExitErrorWithMessage(errorutil.CodeInvalidUsage, fmt.Sprintf("不接受位置参数: %v", args), nil)
			}
			return nil
		},
		// 阻止 Cobra 在命令参数错误时输出帮助
		SilenceUsage: true,
		// 错误由 main 统一打印
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logutil.InitLogger(logFile, logLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout())
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errorutil.NewExitError(errorutil.CodeInvalidUsage, err)
	})

	cmd.PersistentFlags().VarP(&logLevel, "log-level", "e", "日志等级(DEBUG/INFO/WARN/ERROR)")
	cmd.PersistentFlags().StringVarP(&logFile, "log-file", "l", "stderr", "日志输出(stderr/stdout/文件名)")

	flags := cmd.Flags()
	flags.BoolVar(&opts.noColor, "no-color", false, "不输出颜色")
	flags.BoolVar(&opts.noExtra, "no-extra", false, "不显示 lsusb -v 的详细信息")
	flags.Var(&opts.format, "format", "输出格式: text|json|dot")
	flags.StringVar(&opts.idsFile, "ids-file", "", "usb.ids 文件路径（远程模式下是远程路径）")
	flags.StringVar(&opts.topologyFile, "topology-file", "", "读取保存的 lsusb -tv 输出")
	flags.StringVar(&opts.verboseFile, "verbose-file", "", "读取保存的 lsusb -v 输出")
	flags.StringVar(&opts.mockScenario, "mock-scenario", "",
		fmt.Sprintf("使用内置场景(%v)，为空则不打桩", source.Scenarios()))

	flags.StringVarP(&opts.ssh.Host, "host", "H", "", "远程主机，为空时在本机执行")
	flags.StringVarP(&opts.ssh.Port, "port", "p", "22", "SSH 端口")
	flags.DurationVarP(&opts.ssh.Timeout, "timeout", "t", 20*time.Second, "SSH 连接超时")
	flags.StringVarP(&opts.ssh.User, "user", "U", "root", "SSH 用户名")
	flags.StringVarP(&opts.ssh.Password, "password", "P", "", "SSH 密码")
	return cmd
}
