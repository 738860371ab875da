package testutils

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type DiffLine struct {
	Left  string
	Right string
	Mark  string // "|", "+", "-", "~"
}

// CompareLines 按行比较，相邻的删除+插入合并成修改行
func CompareLines(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	text1, text2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(text1, text2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result []DiffLine
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		if d.Type == diffmatchpatch.DiffDelete && i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
			dels := splitLines(d.Text)
			ins := splitLines(diffs[i+1].Text)
			for j := range max(len(dels), len(ins)) {
				var l, r string
				if j < len(dels) {
					l = dels[j]
				}
				if j < len(ins) {
					r = ins[j]
				}
				result = append(result, DiffLine{Left: l, Right: r, Mark: "~"})
			}
			i++
			continue
		}
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				result = append(result, DiffLine{Left: line, Right: line, Mark: "|"})
			case diffmatchpatch.DiffDelete:
				result = append(result, DiffLine{Left: line, Mark: "-"})
			case diffmatchpatch.DiffInsert:
				result = append(result, DiffLine{Right: line, Mark: "+"})
			}
		}
	}
	return result
}

// 行块末尾的换行不产生空行
func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// FormatSideBySide 左右并排显示，按显示宽度对齐
// fmt 的宽度按字符数算，补齐时要换算成 字符数 + (最大显示宽度 - 当前显示宽度)
func FormatSideBySide(diff []DiffLine) string {
	maxWidth := 0
	for _, d := range diff {
		maxWidth = max(maxWidth, runewidth.StringWidth(d.Left))
	}

	header := fmt.Sprintf("%-*s  %s  %s", maxWidth, "* Want", " ", "* Got")
	out := []string{header, strings.Repeat("-", len(header))}
	for _, d := range diff {
		pad := utf8.RuneCountInString(d.Left) + maxWidth - runewidth.StringWidth(d.Left)
		out = append(out, fmt.Sprintf("%-*s  %s  %s", pad, d.Left, d.Mark, d.Right))
	}
	return strings.Join(out, "\n")
}

// EqualText 两段文本不同时输出并排 diff 并让测试失败
func EqualText(t testing.TB, want, got string) bool {
	t.Helper()
	if want == got {
		return true
	}
	t.Errorf("文本不一致:\n%s", FormatSideBySide(CompareLines(want, got)))
	return false
}
