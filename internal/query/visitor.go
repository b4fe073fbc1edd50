package query

// Visitor is called for every node reached by Walk or WalkPostOrder.
// VisitChildren is consulted before descending into a node's children;
// returning false skips the subtree below the current node.
type Visitor interface {
	VisitChildren() bool
	Visit(n Node)
}

// VisitorFunc adapts a function to a Visitor that always descends.
type VisitorFunc func(n Node)

func (f VisitorFunc) VisitChildren() bool { return true }

func (f VisitorFunc) Visit(n Node) { f(n) }

// Walk visits n, then its children in insertion order (pre-order).
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	v.Visit(n)
	if !v.VisitChildren() {
		return
	}
	for _, c := range n.Children() {
		Walk(v, c)
	}
}

// WalkPostOrder visits the children of n before n itself.
func WalkPostOrder(v Visitor, n Node) {
	if n == nil {
		return
	}
	if v.VisitChildren() {
		for _, c := range n.Children() {
			WalkPostOrder(v, c)
		}
	}
	v.Visit(n)
}

// Terms collects every leaf term of the tree in left-to-right order.
func Terms(root Node) []Term {
	var terms []Term
	Walk(VisitorFunc(func(n Node) {
		switch t := n.(type) {
		case *QuotedNode:
			terms = append(terms, t)
		case *TermNode:
			terms = append(terms, t)
		}
	}), root)
	return terms
}
