package dom

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// InnerHTML 序列化元素的内部标记（不含元素自身的标签）
func InnerHTML(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render inner markup: %w", err)
		}
	}
	return sb.String(), nil
}

// SetInnerHTML 用给定标记替换元素的全部子节点。
// 标记在元素自身的解析上下文中解析，保证表格单元格等上下文敏感
// 内容不被浏览器式解析规则移位。
func SetInnerHTML(n *html.Node, markup string) error {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Data,
		DataAtom: n.DataAtom,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("parse translated markup: %w", err)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
	return nil
}

// FlattenText 拍平子树的全部文本内容，跳过 script/style
func FlattenText(n *html.Node) string {
	var sb strings.Builder
	flattenText(n, &sb)
	return sb.String()
}

func flattenText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenText(c, sb)
	}
}

// Detached 判断节点是否已脱离文档树（沿父链向上到不了文档根）。
// 页面脚本可能在译文返回前移除节点，回写前必须检查。
func Detached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return false
		}
	}
	return true
}

// GetAttr 读取节点属性
func GetAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// SetAttr 设置节点属性（已存在时覆盖）
func SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// AddClass 向 class 属性追加一个类名（已存在时不重复）
func AddClass(n *html.Node, class string) {
	existing := GetAttr(n, "class")
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	SetAttr(n, "class", existing+" "+class)
}

// HasClass 判断 class 属性中是否含有给定类名
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(GetAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// hasLetter 判断文本中是否至少含一个字母。
// 纯标点、数字、空白的文本不构成翻译单元。
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// splitPadding 把原始文本拆成首部空白、裁剪后的正文、尾部空白三段
func splitPadding(raw string) (leading, trimmed, trailing string) {
	trimmed = strings.TrimLeftFunc(raw, unicode.IsSpace)
	leading = raw[:len(raw)-len(trimmed)]
	body := strings.TrimRightFunc(trimmed, unicode.IsSpace)
	trailing = trimmed[len(body):]
	return leading, body, trailing
}
