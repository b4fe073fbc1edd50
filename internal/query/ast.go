package query

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Node is the interface for all AST nodes.
type Node interface {
	Value() any
	SetValue(v any)
	Children() []Node
	AddChildNode(child Node)
	RemoveChildNode(child Node) bool
	String() string
	astNode()
}

// QueryNode is a node that can stand as a whole query or boolean operand.
type QueryNode interface {
	Node
	queryNode()
}

// Term is a node that carries a term value.
type Term interface {
	Node
	TermValue() string
	termNode()
}

// Operator identifies the boolean operator of a BooleanQueryNode.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "UNKNOWN"
	}
}

// baseNode holds the value and ordered children shared by every node.
type baseNode struct {
	value    any
	children []Node
}

func (n *baseNode) astNode() {}

func (n *baseNode) Value() any { return n.value }

func (n *baseNode) SetValue(v any) { n.value = v }

// Children returns a copy of the children in insertion order.
func (n *baseNode) Children() []Node {
	return slices.Clone(n.children)
}

// AddChildNode appends a child.
func (n *baseNode) AddChildNode(child Node) {
	n.children = append(n.children, child)
}

// RemoveChildNode removes the first child identical to the argument.
// Returns false if the node is not a direct child.
func (n *baseNode) RemoveChildNode(child Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = slices.Delete(n.children, i, i+1)
			return true
		}
	}
	return false
}

func (n *baseNode) child(i int) Node {
	if i < len(n.children) {
		return n.children[i]
	}
	return nil
}

// TermNode is a single bare term.
type TermNode struct {
	baseNode
	termValue string
}

// NewTermNode creates a term node.
func NewTermNode(value string) *TermNode {
	n := &TermNode{}
	n.SetTermValue(value)
	return n
}

func (n *TermNode) termNode() {}

// TermValue returns the term.
func (n *TermNode) TermValue() string { return n.termValue }

// SetTermValue sets the term and the node value.
func (n *TermNode) SetTermValue(v string) {
	n.termValue = v
	n.SetValue(v)
}

func (n *TermNode) String() string {
	return fmt.Sprintf("term(%s)", n.termValue)
}

// QuotedNode is a quoted phrase. TermValueList holds its words.
type QuotedNode struct {
	TermNode
	termValueList []string
}

// NewQuotedNode creates a quoted node.
func NewQuotedNode(value string) *QuotedNode {
	n := &QuotedNode{}
	n.SetTermValue(value)
	return n
}

// SetTermValue sets the phrase and re-splits it on whitespace.
func (n *QuotedNode) SetTermValue(v string) {
	n.TermNode.SetTermValue(v)
	n.termValueList = strings.Fields(v)
}

// TermValueList returns the whitespace-separated words of the phrase.
func (n *QuotedNode) TermValueList() []string {
	return slices.Clone(n.termValueList)
}

func (n *QuotedNode) String() string {
	return fmt.Sprintf("quoted(%q)", n.termValue)
}

// MultipleTermNode is an implicit AND of two adjacent terms.
// Longer runs nest on the left: a b c is multi(multi(a, b), c).
type MultipleTermNode struct {
	baseNode
}

// NewMultipleTermNode creates a node over two adjacent terms.
func NewMultipleTermNode(first, second Term) *MultipleTermNode {
	n := &MultipleTermNode{}
	n.AddChildNode(first)
	n.AddChildNode(second)
	return n
}

func (n *MultipleTermNode) queryNode() {}
func (n *MultipleTermNode) termNode()  {}

// FirstTermNode returns the left term, or nil if it was removed.
func (n *MultipleTermNode) FirstTermNode() Term {
	t, _ := n.child(0).(Term)
	return t
}

// SecondTermNode returns the right term, or nil if it was removed.
func (n *MultipleTermNode) SecondTermNode() Term {
	t, _ := n.child(1).(Term)
	return t
}

// TermValue joins the term values of both children with a space.
func (n *MultipleTermNode) TermValue() string {
	var parts []string
	for _, c := range n.children {
		if t, ok := c.(Term); ok {
			parts = append(parts, t.TermValue())
		}
	}
	return strings.Join(parts, " ")
}

func (n *MultipleTermNode) String() string {
	return fmt.Sprintf("multi(%s)", joinChildren(n.children))
}

// SimpleQueryNode wraps a single term as a query.
type SimpleQueryNode struct {
	baseNode
}

// NewSimpleQueryNode creates a query over one term.
func NewSimpleQueryNode(term Term) *SimpleQueryNode {
	n := &SimpleQueryNode{}
	n.AddChildNode(term)
	return n
}

func (n *SimpleQueryNode) queryNode() {}

// TermNode returns the wrapped term, or nil if it was removed.
func (n *SimpleQueryNode) TermNode() Term {
	t, _ := n.child(0).(Term)
	return t
}

func (n *SimpleQueryNode) String() string {
	return fmt.Sprintf("simple(%s)", joinChildren(n.children))
}

// BooleanQueryNode combines two queries. It is embedded by
// AndBooleanQueryNode and OrBooleanQueryNode.
type BooleanQueryNode struct {
	baseNode
}

func (n *BooleanQueryNode) queryNode() {}

// FirstQueryNode returns the left operand, or nil if it was removed.
func (n *BooleanQueryNode) FirstQueryNode() QueryNode {
	q, _ := n.child(0).(QueryNode)
	return q
}

// SecondQueryNode returns the right operand, or nil if it was removed.
func (n *BooleanQueryNode) SecondQueryNode() QueryNode {
	q, _ := n.child(1).(QueryNode)
	return q
}

// BooleanQuery is implemented by both boolean node kinds.
type BooleanQuery interface {
	QueryNode
	Operator() Operator
	FirstQueryNode() QueryNode
	SecondQueryNode() QueryNode
}

// AndBooleanQueryNode matches documents matching both operands.
type AndBooleanQueryNode struct {
	BooleanQueryNode
}

// NewAndBooleanQueryNode creates first AND second.
func NewAndBooleanQueryNode(first, second QueryNode) *AndBooleanQueryNode {
	n := &AndBooleanQueryNode{}
	n.AddChildNode(first)
	n.AddChildNode(second)
	return n
}

func (n *AndBooleanQueryNode) Operator() Operator { return OpAnd }

func (n *AndBooleanQueryNode) String() string {
	return fmt.Sprintf("and(%s)", joinChildren(n.children))
}

// OrBooleanQueryNode matches documents matching either operand.
type OrBooleanQueryNode struct {
	BooleanQueryNode
}

// NewOrBooleanQueryNode creates first OR second.
func NewOrBooleanQueryNode(first, second QueryNode) *OrBooleanQueryNode {
	n := &OrBooleanQueryNode{}
	n.AddChildNode(first)
	n.AddChildNode(second)
	return n
}

func (n *OrBooleanQueryNode) Operator() Operator { return OpOr }

func (n *OrBooleanQueryNode) String() string {
	return fmt.Sprintf("or(%s)", joinChildren(n.children))
}

// NewBooleanQueryNode creates the boolean node for op.
func NewBooleanQueryNode(op Operator, first, second QueryNode) BooleanQuery {
	if op == OpOr {
		return NewOrBooleanQueryNode(first, second)
	}
	return NewAndBooleanQueryNode(first, second)
}

func joinChildren(children []Node) string {
	strs := make([]string, len(children))
	for i, c := range children {
		strs[i] = c.String()
	}
	return strings.Join(strs, ", ")
}

// Equal reports whether two trees have the same shape, node kinds and values.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.DeepEqual(a.Value(), b.Value()) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
