package gotensor

import "fmt"

// IndexError is the index-consistency fault: a node would carry two
// indices with the same name and the same state, addends of a sum disagree
// on their free indices, or a tensor appears where only scalars are allowed.
// The kernel panics with it; Try converts it into an error.
type IndexError struct {
	Op     string
	Index  Index
	Reason string
}

func (e *IndexError) Error() string {
	if e.Index.Name == "" {
		return fmt.Sprintf("gotensor: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gotensor: %s: %s %s", e.Op, e.Reason, e.Index)
}

// ArithmeticError is raised by exact arithmetic, e.g. a reciprocal of zero.
type ArithmeticError struct {
	Op     string
	Reason string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("gotensor: %s: %s", e.Op, e.Reason)
}

// Try runs fn and converts index and arithmetic faults into an error.
// Any other panic, including invariant violations, is re-raised.
func Try(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch f := r.(type) {
			case *IndexError:
				err = f
			case *ArithmeticError:
				err = f
			default:
				panic(r)
			}
		}
	}()
	fn()
	return nil
}

// invariant reports a broken canonical form. It is a bug, never bad input.
func invariant(format string, args ...interface{}) {
	panic(fmt.Sprintf("gotensor: invariant violated: "+format, args...))
}

func outOfRange(e Expr, i int) string {
	return fmt.Sprintf("gotensor: child index %d out of range for %s with %d children", i, e.exprType(), e.Len())
}
