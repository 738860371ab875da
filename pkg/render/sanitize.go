package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// sanitize 把控制字符和非法 UTF-8 字节转义成可见文本
// 渲染结果一个元素一行，所以换行和 tab 也要转义
func sanitize(s string) string {
	idx := 0
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		if (r == utf8.RuneError && size == 1) || unicode.IsControl(r) {
			break
		}
		idx += size
	}
	if idx == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:idx])
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		switch {
		case r == utf8.RuneError && size == 1:
			escapeByte(&b, s[idx])
		case unicode.IsControl(r):
			// unicode.IsControl 只认 C0/C1，都在一个字节以内
			escapeByte(&b, byte(r))
		default:
			b.WriteString(s[idx : idx+size])
		}
		idx += size
	}
	return b.String()
}

func escapeByte(b *strings.Builder, c byte) {
	b.WriteString(`\x`)
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0x0f])
}
