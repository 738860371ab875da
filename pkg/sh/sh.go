package sh

import (
	"strings"
)

// 不需要引号的字符，其余一律用单引号包起来
func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@%+,", r)
}

// Quote 生成 POSIX sh 能原样还原的参数
// 单引号内部没有任何转义，单引号本身写成 '\''
//
//	Quote("it's")  => 'it'\''s'
//	Quote("-tv")   => -tv
//	Quote("")      => ''
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join 把参数拼成一条远端命令行
// :TODO: 远端默认是 sh 兼容的 shell，Windows 的 OpenSSH 不行
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}
