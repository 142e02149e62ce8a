package dom

import "golang.org/x/net/html"

// UnitKind 翻译单元类型
type UnitKind int

const (
	// UnitText 单个纯文本段
	UnitText UnitKind = iota
	// UnitBlock 仅含行内子孙的块级元素，整体作为一段标记文本翻译
	UnitBlock
)

// String 返回类型名称
func (k UnitKind) String() string {
	switch k {
	case UnitText:
		return "text"
	case UnitBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Unit 一次翻译的原子工作项。
// 由分类器在一次树遍历中创建，经去重分批、调度、回写后即作废，不会复用。
// Anchor 是对 DOM 节点的非占有引用：节点一旦脱离文档树，单元随之失效。
type Unit struct {
	// Kind 单元类型
	Kind UnitKind

	// Content 翻译载荷：Text 为去除首尾空白的文本，Block 为元素的内部标记
	Content string

	// PlainText 仅 Block 使用：拍平后的纯文本，作为"原文"展示给用户
	PlainText string

	// Anchor 待回写的节点：Text 为文本节点本身，Block 为元素节点
	Anchor *html.Node

	// LeadingSpace / TrailingSpace 仅 Text 使用：裁剪下来的首尾空白，
	// 回写时原样恢复，保证不影响周围排版
	LeadingSpace  string
	TrailingSpace string
}

// CharCount 返回单元内容的字符数（用于批次的字符上限）
func (u *Unit) CharCount() int {
	return len([]rune(u.Content))
}
