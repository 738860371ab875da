package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/mohdismailmatasin/usbview/pkg/errorutil"
	"github.com/mohdismailmatasin/usbview/pkg/logutil"
	"github.com/mohdismailmatasin/usbview/pkg/sh"
)

// SSHConfig 远程主机连接参数
type SSHConfig struct {
	Host     string
	Port     string
	Timeout  time.Duration
	User     string
	Password string
}

// SSH 在远程主机上执行 lsusb，usb.ids 通过 SFTP 读取
type SSH struct {
	cfg    SSHConfig
	client *ssh.Client
	// 第一次 Open 时才建立，有的主机没开 sftp 子系统
	sftp *sftp.Client
}

// :TODO: 目前只支持密码认证，主机密钥不做校验
func DialSSH(cfg SSHConfig) (*SSH, error) {
	config := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.Timeout,
	}
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	logutil.Debug("连接 %s@%s", cfg.User, addr)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, errorutil.NewExitErrorWithMessage(errorutil.CodeSSHError, fmt.Sprintf("连接 %s 失败", addr), err)
	}
	return &SSH{cfg: cfg, client: client}, nil
}

func (s *SSH) run(args []string) (stdout, stderr []byte, err error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, nil, errorutil.NewExitErrorWithMessage(errorutil.CodeSSHError, "创建 session 失败", err)
	}
	defer session.Close()

	var outBuf, errBuf bytes.Buffer
	session.Stdout = &outBuf
	session.Stderr = &errBuf
	cmdline := sh.Join(args)
	logutil.Debug("远程执行: %s", cmdline)
	err = session.Run(cmdline)
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func remoteFailure(cmdline string, stderr []byte, err error) error {
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return errorutil.NewCmdFailure(
			exitErr.ExitStatus(),
			fmt.Sprintf("远程命令 %s 失败（ExitCode=%d）：%s", cmdline, exitErr.ExitStatus(), strings.TrimSpace(string(stderr))),
			err,
		)
	}
	var coded *errorutil.ExitErrorWithCode
	if errors.As(err, &coded) {
		return err
	}
	return errorutil.NewExitErrorWithMessage(errorutil.CodeSSHError, fmt.Sprintf("SSH 执行 %s 失败", cmdline), err)
}

func (s *SSH) Topology() (string, error) {
	out, stderr, err := s.run(TopologyArgs)
	if err == nil {
		return string(out), nil
	}
	var exitErr *ssh.ExitError
	if !errors.As(err, &exitErr) {
		return "", remoteFailure(sh.Join(TopologyArgs), stderr, err)
	}
	logutil.Warn("远程 lsusb -tv 失败，改用 -t: %s", strings.TrimSpace(string(stderr)))
	out, stderr, err = s.run(TopologyFallbackArgs)
	if err != nil {
		return "", remoteFailure(sh.Join(TopologyFallbackArgs), stderr, err)
	}
	return string(out), nil
}

func (s *SSH) Verbose() (string, error) {
	out, stderr, err := s.run(VerboseArgs)
	if err != nil {
		if len(out) > 0 {
			logutil.Warn("远程 lsusb -v 部分失败，使用已有输出: %v", err)
			return string(out), nil
		}
		return "", remoteFailure(sh.Join(VerboseArgs), stderr, err)
	}
	return string(out), nil
}

// Open 通过 SFTP 打开远程文件
func (s *SSH) Open(path string) (io.ReadCloser, error) {
	if s.sftp == nil {
		client, err := sftp.NewClient(s.client)
		if err != nil {
			return nil, errorutil.NewExitErrorWithMessage(errorutil.CodeSSHError, "SFTP 初始化失败", err)
		}
		s.sftp = client
	}
	f, err := s.sftp.Open(path)
	if err != nil {
		return nil, errorutil.NewExitErrorWithMessage(errorutil.CodeIOError, fmt.Sprintf("无法打开远程文件 %s", path), err)
	}
	if info, err := f.Stat(); err == nil {
		logutil.Debug("远程文件 %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}
	return f, nil
}

func (s *SSH) Close() error {
	var errs []error
	if s.sftp != nil {
		errs = append(errs, s.sftp.Close())
	}
	errs = append(errs, s.client.Close())
	return errors.Join(errs...)
}
