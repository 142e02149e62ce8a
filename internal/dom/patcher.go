package dom

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Patcher 把译文原地写回 DOM，同时记录原文供展示与还原。
// 回写输出会被标记为系统自身的产物，变更监听不会再处理它们。
// 每个单元只消费一次，锚点已脱离文档时回写退化为无操作。
type Patcher struct {
	marks  *Marks
	logger *zap.Logger
}

// NewPatcher 创建回写器
func NewPatcher(marks *Marks, logger *zap.Logger) *Patcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Patcher{marks: marks, logger: logger}
}

// Apply 将译文写入单元的锚点。
// Text 单元：原文本节点被三个兄弟节点取代——恢复的首部空白、
// 携带原文属性的译文包装元素、恢复的尾部空白。
// Block 单元：元素内部标记被译文标记整体替换（远端服务负责
// 保持行内标记有效），并附加译文标识与拍平的原文。
func (p *Patcher) Apply(u *Unit, translated string) error {
	if u == nil || u.Anchor == nil {
		return nil
	}
	if Detached(u.Anchor) {
		p.logger.Debug("anchor detached before patch, skipping",
			zap.String("kind", u.Kind.String()))
		return nil
	}

	switch u.Kind {
	case UnitText:
		return p.applyText(u, translated)
	case UnitBlock:
		return p.applyBlock(u, translated)
	default:
		return fmt.Errorf("unknown unit kind %d", u.Kind)
	}
}

func (p *Patcher) applyText(u *Unit, translated string) error {
	parent := u.Anchor.Parent
	if parent == nil {
		return nil
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: TranslatedClass},
			{Key: OriginalAttr, Val: u.Content},
		},
	}
	text := &html.Node{Type: html.TextNode, Data: translated}
	wrapper.AppendChild(text)

	if u.LeadingSpace != "" {
		lead := &html.Node{Type: html.TextNode, Data: u.LeadingSpace}
		parent.InsertBefore(lead, u.Anchor)
		p.marks.Mark(lead)
	}
	parent.InsertBefore(wrapper, u.Anchor)
	if u.TrailingSpace != "" {
		trail := &html.Node{Type: html.TextNode, Data: u.TrailingSpace}
		parent.InsertBefore(trail, u.Anchor)
		p.marks.Mark(trail)
	}

	parent.RemoveChild(u.Anchor)
	p.marks.Forget(u.Anchor)
	p.marks.MarkSubtree(wrapper)
	return nil
}

func (p *Patcher) applyBlock(u *Unit, translated string) error {
	if err := SetInnerHTML(u.Anchor, translated); err != nil {
		return fmt.Errorf("patch block: %w", err)
	}

	AddClass(u.Anchor, TranslatedClass)
	SetAttr(u.Anchor, OriginalAttr, u.PlainText)
	p.marks.MarkSubtree(u.Anchor)
	return nil
}
