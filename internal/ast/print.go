package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer provides pretty-printing for AST nodes.
// It outputs JavaScript-like source with every operation parenthesized,
// and annotates resolved variables with their slots when ShowSlots is set.
type Printer struct {
	w      io.Writer
	indent int
	err    error

	// ShowSlots appends the storage slot to each variable reference.
	ShowSlots bool
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes a pretty-printed representation of the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

// String returns the printed form of node with slots shown.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.ShowSlots = true
	_ = p.Print(node)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	if node == nil {
		p.printf("<nil>")
		return
	}

	switch n := node.(type) {
	case *FunctionLit:
		p.printFunction(n)
	case Expr:
		p.printExpr(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printFunction(f *FunctionLit) {
	if f.IsProgram {
		for _, s := range f.Body {
			p.writeIndent()
			p.printStmt(s)
			p.printf("\n")
		}
		return
	}
	p.printf("function %s(%s) {\n", f.Name, strings.Join(f.Params, ", "))
	p.indent++
	for _, s := range f.Body {
		p.writeIndent()
		p.printStmt(s)
		p.printf("\n")
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) printLabels(l *Labels) {
	for _, name := range l.Names {
		p.printf("%s: ", name)
	}
}

func (p *Printer) printBlock(b *Block) {
	p.printLabels(&b.Labels)
	p.printf("{\n")
	p.indent++
	for _, s := range b.Stmts {
		p.writeIndent()
		p.printStmt(s)
		p.printf("\n")
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) printStmt(s Stmt) {
	if s == nil {
		p.printf("<nil>")
		return
	}

	switch n := s.(type) {
	case *Block:
		p.printBlock(n)

	case *ExprStmt:
		p.printExpr(n.Expr)
		p.printf(";")

	case *EmptyStmt:
		p.printf(";")

	case *IfStmt:
		p.printf("if (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Then)
		if _, empty := n.Else.(*EmptyStmt); n.Else != nil && !empty {
			p.printf(" else ")
			p.printStmt(n.Else)
		}

	case *ContinueStmt:
		if n.Label != "" {
			p.printf("continue %s;", n.Label)
		} else {
			p.printf("continue;")
		}

	case *BreakStmt:
		if n.Label != "" {
			p.printf("break %s;", n.Label)
		} else {
			p.printf("break;")
		}

	case *ReturnStmt:
		if n.Value == nil {
			p.printf("return;")
		} else {
			p.printf("return ")
			p.printExpr(n.Value)
			p.printf(";")
		}

	case *WithEnterStmt:
		if n.IsCatchBlock {
			p.printf("%%enter_catch(")
		} else {
			p.printf("%%enter_with(")
		}
		p.printExpr(n.Expr)
		p.printf(");")

	case *WithExitStmt:
		p.printf("%%exit_with();")

	case *SwitchStmt:
		p.printLabels(&n.Labels)
		p.printf("switch (")
		p.printExpr(n.Tag)
		p.printf(") {\n")
		for _, c := range n.Cases {
			p.writeIndent()
			if c.Label == nil {
				p.printf("default:\n")
			} else {
				p.printf("case ")
				p.printExpr(c.Label)
				p.printf(":\n")
			}
			p.indent++
			for _, st := range c.Body {
				p.writeIndent()
				p.printStmt(st)
				p.printf("\n")
			}
			p.indent--
		}
		p.writeIndent()
		p.printf("}")

	case *DoWhileStmt:
		p.printLabels(&n.Labels)
		p.printf("do ")
		p.printStmt(n.Body)
		p.printf(" while (")
		p.printExpr(n.Cond)
		p.printf(");")

	case *WhileStmt:
		p.printLabels(&n.Labels)
		p.printf("while (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Body)

	case *ForStmt:
		p.printLabels(&n.Labels)
		p.printf("for (")
		if n.Init != nil {
			p.printStmt(n.Init)
		} else {
			p.printf(";")
		}
		p.printf(" ")
		if n.Cond != nil {
			p.printExpr(n.Cond)
		}
		p.printf("; ")
		if n.Next != nil {
			p.printStmt(n.Next)
		}
		p.printf(") ")
		p.printStmt(n.Body)

	case *ForInStmt:
		p.printLabels(&n.Labels)
		p.printf("for (")
		p.printExpr(n.Each)
		p.printf(" in ")
		p.printExpr(n.Enumerable)
		p.printf(") ")
		p.printStmt(n.Body)

	case *TryCatchStmt:
		p.printf("try ")
		p.printBlock(n.Try)
		p.printf(" catch (")
		p.printExpr(n.CatchVar)
		p.printf(") ")
		p.printBlock(n.Catch)

	case *TryFinallyStmt:
		p.printf("try ")
		p.printBlock(n.Try)
		p.printf(" finally ")
		p.printBlock(n.Finally)

	case *DebuggerStmt:
		p.printf("debugger;")

	default:
		p.printf("<%T>", s)
	}
}

func (p *Printer) printExprs(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(e)
	}
}

func (p *Printer) printExpr(e Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	switch n := e.(type) {
	case *Literal:
		p.printLiteral(n)

	case *RegExpLit:
		p.printf("/%s/%s", n.Pattern, n.Flags)

	case *ObjectLit:
		p.printf("{")
		for i, prop := range n.Props {
			if i > 0 {
				p.printf(", ")
			}
			if prop.Kind == PropPrototype {
				p.printf("__proto__: ")
			} else {
				p.printLiteral(prop.Key)
				p.printf(": ")
			}
			p.printExpr(prop.Value)
		}
		p.printf("}")

	case *ArrayLit:
		p.printf("[")
		p.printExprs(n.Values)
		p.printf("]")

	case *FunctionLit:
		p.printFunction(n)

	case *FunctionBoilerplateLit:
		p.printf("%%boilerplate(%s)", n.Name)

	case *ThisFunction:
		p.printf("%%this_function()")

	case *VarRef:
		p.printf("%s", n.Name)
		if p.ShowSlots && n.Var != nil {
			if n.Var.Slot == nil {
				p.printf("@global")
			} else {
				p.printf("@%s[%d]", n.Var.Slot.Kind, n.Var.Slot.Index)
			}
		}

	case *Property:
		p.printExpr(n.Obj)
		if IsPropertyName(n.Key) {
			p.printf(".%s", n.Key.(*Literal).Str)
		} else {
			p.printf("[")
			p.printExpr(n.Key)
			p.printf("]")
		}

	case *Conditional:
		p.printf("(")
		p.printExpr(n.Cond)
		p.printf(" ? ")
		p.printExpr(n.Then)
		p.printf(" : ")
		p.printExpr(n.Else)
		p.printf(")")

	case *Assign:
		p.printf("(")
		p.printExpr(n.Target)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Value)
		p.printf(")")

	case *CountOp:
		if n.Prefix {
			p.printf("(%s", n.Op)
			p.printExpr(n.X)
			p.printf(")")
		} else {
			p.printf("(")
			p.printExpr(n.X)
			p.printf("%s)", n.Op)
		}

	case *Unary:
		p.printf("(%s", n.Op)
		if n.Op.String()[0] >= 'a' {
			p.printf(" ")
		}
		p.printExpr(n.X)
		p.printf(")")

	case *Binary:
		p.printf("(")
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)
		p.printf(")")

	case *Compare:
		p.printf("(")
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)
		p.printf(")")

	case *Call:
		p.printExpr(n.Callee)
		p.printf("(")
		p.printExprs(n.Args)
		p.printf(")")

	case *CallNew:
		p.printf("new ")
		p.printExpr(n.Callee)
		p.printf("(")
		p.printExprs(n.Args)
		p.printf(")")

	case *CallRuntime:
		p.printf("%%%s(", n.Name)
		p.printExprs(n.Args)
		p.printf(")")

	case *Throw:
		p.printf("throw ")
		p.printExpr(n.Exception)

	case *CatchExtensionObject:
		p.printf("%%catch_extension(")
		p.printLiteral(n.Key)
		p.printf(", ")
		p.printExpr(n.Value)
		p.printf(")")

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printLiteral(l *Literal) {
	switch l.Kind {
	case LitUndefined:
		p.printf("undefined")
	case LitNull:
		p.printf("null")
	case LitTrue:
		p.printf("true")
	case LitFalse:
		p.printf("false")
	case LitNumber:
		p.printf("%s", strconv.FormatFloat(l.Num, 'g', -1, 64))
	case LitString:
		p.printf("%q", l.Str)
	case LitHole:
		p.printf("<hole>")
	}
}
