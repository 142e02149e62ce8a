package dom

import (
	"strings"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// 系统自身输出的标识，供工具提示/状态指示等协作方消费
const (
	// TranslatedClass 标记系统生成的译文元素
	TranslatedClass = "pgt-translated"
	// OriginalAttr 在译文元素上携带可取回的原文
	OriginalAttr = "data-pgt-original"
	// StatusElementID 状态指示元素的 id，遍历时整体跳过
	StatusElementID = "pgt-status"
)

// excludedTags 整体跳过的元素：不可翻译内容或翻译后会破坏语义的结构
var excludedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"code": true, "pre": true, "kbd": true, "samp": true, "var": true,
	"textarea": true, "select": true, "option": true,
	"iframe": true, "svg": true, "math": true, "canvas": true,
}

// inlineTags 行内级元素。块级元素的全部子孙都是行内级时，
// 该元素可以坍缩为一个 Block 单元整体翻译。
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true,
	"br": true, "cite": true, "data": true, "dfn": true, "em": true,
	"i": true, "mark": true, "q": true, "rp": true, "rt": true,
	"ruby": true, "s": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "time": true, "u": true, "wbr": true,
}

// blockTags 允许坍缩为 Block 单元的块级容器。
// 列表、表格等更大的结构不在其中：把它们整体当作标记文本翻译
// 容易被远端服务破坏，退化为逐文本节点处理更安全。
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "li": true, "td": true, "th": true,
	"dt": true, "dd": true, "blockquote": true, "figcaption": true,
	"caption": true, "summary": true, "legend": true, "div": true,
}

// footerPattern 页脚区域的 id/class 启发式匹配
var footerPattern = regexp2.MustCompile(`(?i)\bfoot(er)?\b|copyright|colophon|\blegal\b`, 0)

// Classifier 单元分类器。
// 深度优先遍历文档（子）树，决定每个节点是否可翻译，以及把子树
// 当作一个 Block 单元还是拆成独立的 Text 单元。持有会话级的
// 已处理标记集合，保证每个节点至多生成一个单元。
type Classifier struct {
	marks  *Marks
	logger *zap.Logger
}

// NewClassifier 创建分类器
func NewClassifier(marks *Marks, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{marks: marks, logger: logger}
}

// Classify 遍历子树并按文档顺序返回翻译单元。
// 已标记的子树不会产生任何单元（幂等）。单元创建的同时即完成标记，
// 先于任何异步工作，避免随后触发的变更扫描重复拾取。
func (c *Classifier) Classify(root *html.Node) []*Unit {
	if inExcludedRegion(root) {
		return nil
	}

	var units []*Unit
	c.walk(root, &units)

	c.logger.Debug("classified subtree",
		zap.Int("units", len(units)),
		zap.Int("marked", c.marks.Len()))
	return units
}

func (c *Classifier) walk(n *html.Node, units *[]*Unit) {
	if n == nil || c.marks.Has(n) {
		return
	}

	switch n.Type {
	case html.ElementNode:
		if excludedTags[n.Data] || isSystemOutput(n) || isFooterRegion(n) {
			return
		}

		if c.collapseBlock(n, units) {
			return
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.walk(child, units)
		}

	case html.TextNode:
		leading, body, trailing := splitPadding(n.Data)
		if body == "" || !hasLetter(body) {
			return
		}
		*units = append(*units, &Unit{
			Kind:          UnitText,
			Content:       body,
			Anchor:        n,
			LeadingSpace:  leading,
			TrailingSpace: trailing,
		})
		c.marks.Mark(n)

	case html.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.walk(child, units)
		}

	default:
		// 注释、doctype 等节点静默忽略
	}
}

// collapseBlock 尝试把元素坍缩为一个 Block 单元。
// 条件：块级标签、拍平文本含字母、全部子孙都是行内级。
// 成功时标记整个子树并不再下探。返回是否已坍缩。
func (c *Classifier) collapseBlock(n *html.Node, units *[]*Unit) bool {
	if !blockTags[n.Data] {
		return false
	}

	plain := strings.TrimSpace(FlattenText(n))
	if plain == "" || !hasLetter(plain) {
		return false
	}
	if !c.allInline(n) {
		return false
	}

	content, err := InnerHTML(n)
	if err != nil {
		c.logger.Warn("failed to serialize block, falling back to text units",
			zap.String("tag", n.Data), zap.Error(err))
		return false
	}
	if strings.TrimSpace(content) == "" {
		return false
	}

	*units = append(*units, &Unit{
		Kind:      UnitBlock,
		Content:   content,
		PlainText: plain,
		Anchor:    n,
	})
	c.marks.MarkSubtree(n)
	return true
}

// allInline 递归检查全部子孙元素是否都是行内级、未被排除、
// 未被标记且不是系统输出
func (c *Classifier) allInline(n *html.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			if !inlineTags[child.Data] || isSystemOutput(child) || c.marks.Has(child) {
				return false
			}
			if !c.allInline(child) {
				return false
			}
		case html.TextNode:
			if c.marks.Has(child) {
				return false
			}
		}
	}
	return true
}

// isSystemOutput 判断元素是否是系统自身注入的输出
func isSystemOutput(n *html.Node) bool {
	if HasClass(n, TranslatedClass) {
		return true
	}
	if GetAttr(n, OriginalAttr) != "" {
		return true
	}
	return GetAttr(n, "id") == StatusElementID
}

// inExcludedRegion 沿祖先链检查子树根的挂载位置。walk 只向下看，
// 挂在页脚、排除元素或系统输出之下的子树要在这里整体拦下
// （变更通知的根可以是文档里的任意节点）。
func inExcludedRegion(root *html.Node) bool {
	for n := root.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if excludedTags[n.Data] || isSystemOutput(n) || isFooterRegion(n) {
			return true
		}
	}
	return false
}

// isFooterRegion 页脚区域检测：标签名、ARIA role、id/class 启发式
func isFooterRegion(n *html.Node) bool {
	if n.Data == "footer" {
		return true
	}
	if GetAttr(n, "role") == "contentinfo" {
		return true
	}
	for _, key := range []string{"id", "class"} {
		if v := GetAttr(n, key); v != "" {
			if ok, _ := footerPattern.MatchString(v); ok {
				return true
			}
		}
	}
	return false
}
