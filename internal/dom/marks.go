package dom

import "golang.org/x/net/html"

// Marks 已处理节点集合。
// 任何 DOM 节点至多属于一个翻译单元：节点在单元创建时即被标记，
// 后续遍历（包括变更监听触发的重扫）据此跳过。集合随整个页面会话
// 存续，只在单线程回调语境中读写，因此标记必须发生在任何异步工作
// 开始之前。
type Marks struct {
	set map[*html.Node]struct{}
}

// NewMarks 创建空的标记集合
func NewMarks() *Marks {
	return &Marks{set: make(map[*html.Node]struct{})}
}

// Mark 标记单个节点
func (m *Marks) Mark(n *html.Node) {
	if n != nil {
		m.set[n] = struct{}{}
	}
}

// MarkSubtree 标记节点及其全部子孙
func (m *Marks) MarkSubtree(n *html.Node) {
	if n == nil {
		return
	}
	m.Mark(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.MarkSubtree(c)
	}
}

// Has 判断节点是否已标记
func (m *Marks) Has(n *html.Node) bool {
	_, ok := m.set[n]
	return ok
}

// Forget 移除节点的标记。节点确认从树中删除后调用，释放集合条目。
func (m *Marks) Forget(n *html.Node) {
	delete(m.set, n)
}

// Len 返回已标记节点数
func (m *Marks) Len() int {
	return len(m.set)
}
