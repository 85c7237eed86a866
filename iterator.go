package gotensor

// ============================================================
// Rewrite iterator
// ============================================================

// Order selects the visiting order of an Iterator.
type Order int

const (
	// ChildToParent visits a node after all of its descendants.
	ChildToParent Order = iota
	// ParentToChild visits a node before its descendants.
	ParentToChild
)

func (o Order) String() string {
	if o == ParentToChild {
		return "parent-to-child"
	}
	return "child-to-parent"
}

type frame struct {
	orig Expr
	node Expr
	// children holds replaced children; nil while none changed.
	children []Expr
	next     int
	leaf     bool
}

// Iterator walks a tree depth-first and lets the caller replace the node
// under the cursor. Ancestors of a replaced node are rebuilt through their
// builders when the walk leaves them. When nothing was replaced, Result
// returns the original root itself, so callers can detect a no-op with ==.
//
// An Iterator is not safe for concurrent use.
type Iterator struct {
	order   Order
	guard   func(Expr) bool
	root    Expr
	stack   []frame
	result  Expr
	started bool
	pending bool
	done    bool
}

// IteratorOption configures an Iterator.
type IteratorOption func(*Iterator)

// WithGuard makes the iterator enter the children of a node only when
// guard returns true for it. The node itself is still visited.
func WithGuard(guard func(Expr) bool) IteratorOption {
	return func(it *Iterator) { it.guard = guard }
}

// NewIterator returns an iterator positioned before the first node of root.
func NewIterator(root Expr, order Order, opts ...IteratorOption) *Iterator {
	it := &Iterator{order: order, root: root, stack: make([]frame, 0, 16)}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Next advances to the next node and returns it, or nil when the walk is
// exhausted.
func (it *Iterator) Next() Expr {
	if it.done {
		return nil
	}
	if !it.started {
		it.started = true
		it.push(it.root)
		if it.order == ParentToChild {
			return it.root
		}
	}
	if it.order == ChildToParent {
		return it.nextPost()
	}
	return it.nextPre()
}

func (it *Iterator) nextPost() Expr {
	if it.pending {
		it.pending = false
		if it.pop() {
			return nil
		}
	}
	for {
		top := &it.stack[len(it.stack)-1]
		if child := it.descend(top); child != nil {
			it.push(child)
			continue
		}
		it.finish(top)
		it.pending = true
		return top.node
	}
}

func (it *Iterator) nextPre() Expr {
	for {
		top := &it.stack[len(it.stack)-1]
		if child := it.descend(top); child != nil {
			it.push(child)
			return child
		}
		it.finish(top)
		if it.pop() {
			return nil
		}
	}
}

// descend returns the next unvisited child of f, or nil.
func (it *Iterator) descend(f *frame) Expr {
	if f.leaf || f.next >= f.node.Len() {
		return nil
	}
	if f.next == 0 && it.guard != nil && !it.guard(f.node) {
		f.leaf = true
		return nil
	}
	child := f.node.At(f.next)
	f.next++
	return child
}

func (it *Iterator) push(e Expr) {
	it.stack = append(it.stack, frame{orig: e, node: e})
}

// finish rebuilds f from its replaced children.
func (it *Iterator) finish(f *frame) {
	if f.children != nil {
		f.node = Rebuild(f.node, f.children)
		f.children = nil
	}
}

// pop removes the top frame and hands a changed node to its parent.
// It reports whether the walk is over.
func (it *Iterator) pop() bool {
	f := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	if len(it.stack) == 0 {
		it.result = f.node
		it.done = true
		return true
	}
	if f.node == f.orig {
		return false
	}
	parent := &it.stack[len(it.stack)-1]
	if parent.children == nil {
		n := parent.node.Len()
		parent.children = make([]Expr, n)
		for i := 0; i < n; i++ {
			parent.children[i] = parent.node.At(i)
		}
	}
	parent.children[parent.next-1] = f.node
	return false
}

// Current returns the node under the cursor, or nil outside a walk.
func (it *Iterator) Current() Expr {
	if !it.started || it.done {
		return nil
	}
	return it.stack[len(it.stack)-1].node
}

// Depth returns the depth of the current node; the root is at depth 0.
func (it *Iterator) Depth() int { return len(it.stack) - 1 }

// Set replaces the node under the cursor. With ParentToChild the walk does
// not enter the replacement.
func (it *Iterator) Set(e Expr) {
	if !it.started || it.done {
		panic("gotensor: Iterator.Set outside a walk")
	}
	top := &it.stack[len(it.stack)-1]
	if e == top.node {
		return
	}
	top.node = e
	top.children = nil
	top.leaf = true
}

// Result finishes the walk and returns the rebuilt root, or the original
// root when no node was replaced.
func (it *Iterator) Result() Expr {
	for !it.done {
		it.Next()
	}
	return it.result
}

// Transform walks root in the given order and replaces every node n with
// fn(n). fn must return n itself to keep a node.
func Transform(root Expr, order Order, fn func(Expr) Expr, opts ...IteratorOption) Expr {
	it := NewIterator(root, order, opts...)
	for n := it.Next(); n != nil; n = it.Next() {
		if r := fn(n); r != n {
			it.Set(r)
		}
	}
	return it.Result()
}
