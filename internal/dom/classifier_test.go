package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// TestClassifyBlockCollapse 只含行内标记的段落坍缩为一个 Block 单元
func TestClassifyBlockCollapse(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hello <b>world</b></p></body></html>`)
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)

	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, UnitBlock, u.Kind)
	assert.Equal(t, "Hello <b>world</b>", u.Content)
	assert.Equal(t, "Hello world", u.PlainText)
	assert.Equal(t, "p", u.Anchor.Data)
}

// TestClassifyTextFallback 含块级子元素的容器退化为逐文本节点的 Text 单元
func TestClassifyTextFallback(t *testing.T) {
	doc := parseDoc(t, `<html><body><div>intro <p>nested paragraph</p></div></body></html>`)
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)

	require.Len(t, units, 2)
	assert.Equal(t, UnitText, units[0].Kind)
	assert.Equal(t, "intro", units[0].Content)
	// 内层 <p> 自身仍可坍缩
	assert.Equal(t, UnitBlock, units[1].Kind)
	assert.Equal(t, "nested paragraph", units[1].Content)
}

// TestClassifyTextPadding Text 单元分离并保留首尾空白
func TestClassifyTextPadding(t *testing.T) {
	doc := parseDoc(t, "<html><body><div><p>a</p><span>  padded text \n</span></div></body></html>")
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)

	var padded *Unit
	for _, u := range units {
		if u.Content == "padded text" {
			padded = u
		}
	}
	require.NotNil(t, padded)
	assert.Equal(t, UnitText, padded.Kind)
	assert.Equal(t, "  ", padded.LeadingSpace)
	assert.Equal(t, " \n", padded.TrailingSpace)
}

// TestClassifyIdempotent 已处理子树重新分类不产生任何单元
func TestClassifyIdempotent(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hello world</p><span>more text</span></body></html>`)
	marks := NewMarks()
	c := NewClassifier(marks, nil)

	first := c.Classify(doc)
	require.NotEmpty(t, first)

	second := c.Classify(doc)
	assert.Empty(t, second, "re-classification must produce zero units")
}

// TestClassifySkipsExcluded 排除标签与其子孙不产生单元
func TestClassifySkipsExcluded(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"script", `<script>var text = "hello";</script>`},
		{"style", `<style>.a { color: red }</style>`},
		{"code", `<code>fmt.Println("hello")</code>`},
		{"pre", `<pre>preformatted text</pre>`},
		{"textarea", `<textarea>typed text</textarea>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><body>"+tt.src+"</body></html>")
			c := NewClassifier(NewMarks(), nil)
			assert.Empty(t, c.Classify(doc))
		})
	}
}

// TestClassifySkipsFooter 页脚区域按标签、role、id/class 启发式整体跳过
func TestClassifySkipsFooter(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"footer tag", `<footer><p>All rights reserved</p></footer>`},
		{"contentinfo role", `<div role="contentinfo"><p>Imprint</p></div>`},
		{"footer id", `<div id="page-footer"><p>Contact us</p></div>`},
		{"copyright class", `<div class="copyright-notice"><p>Copyright 2024</p></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><body>"+tt.src+"<p>Real content</p></body></html>")
			c := NewClassifier(NewMarks(), nil)

			units := c.Classify(doc)
			require.Len(t, units, 1)
			assert.Equal(t, "Real content", units[0].Content)
		})
	}
}

// TestClassifySkipsExcludedAncestors 以文档内任意节点为根分类时，
// 祖先链上的页脚/排除元素/系统输出同样拦截整棵子树
func TestClassifySkipsExcludedAncestors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"inside footer tag", `<footer><div id="target"><p>New footer link</p></div></footer>`},
		{"inside contentinfo role", `<div role="contentinfo"><div id="target"><p>Imprint</p></div></div>`},
		{"inside copyright class", `<div class="copyright-notice"><div id="target"><p>Copyright 2026</p></div></div>`},
		{"inside template", `<template><div id="target"><p>Hidden draft</p></div></template>`},
		{"inside translated output", `<p class="pgt-translated" data-pgt-original="Hi"><span id="target">Bonjour</span></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><body>"+tt.src+"</body></html>")
			var target *html.Node
			var find func(*html.Node)
			find = func(n *html.Node) {
				if GetAttr(n, "id") == "target" {
					target = n
					return
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					find(c)
				}
			}
			find(doc)
			require.NotNil(t, target)

			c := NewClassifier(NewMarks(), nil)
			assert.Empty(t, c.Classify(target))
		})
	}
}

// TestClassifySkipsNonLetterText 纯标点/数字/空白不构成单元
func TestClassifySkipsNonLetterText(t *testing.T) {
	doc := parseDoc(t, `<html><body><span>...</span><span>42</span><span>  </span><span>§ 12.3</span></body></html>`)
	c := NewClassifier(NewMarks(), nil)
	assert.Empty(t, c.Classify(doc))
}

// TestClassifySkipsSystemOutput 系统自身的译文输出与状态元素不再处理
func TestClassifySkipsSystemOutput(t *testing.T) {
	src := `<html><body>` +
		`<span class="pgt-translated" data-pgt-original="Hello">Bonjour</span>` +
		`<div id="pgt-status">Translating 1/2...</div>` +
		`<p>untouched text</p></body></html>`
	doc := parseDoc(t, src)
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)
	require.Len(t, units, 1)
	assert.Equal(t, "untouched text", units[0].Content)
}

// TestClassifyDocumentOrder 单元顺序与文档顺序一致
func TestClassifyDocumentOrder(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>first</p><p>second</p><p>third</p></body></html>`)
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)
	require.Len(t, units, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{units[0].Content, units[1].Content, units[2].Content})
}

// TestClassifyUnicodeLetters 非拉丁字母同样满足"至少一个字母"
func TestClassifyUnicodeLetters(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>こんにちは</p></body></html>`)
	c := NewClassifier(NewMarks(), nil)

	units := c.Classify(doc)
	require.Len(t, units, 1)
	assert.Equal(t, "こんにちは", units[0].Content)
}
