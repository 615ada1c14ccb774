package ast

// Visitor defines the generic visitor pattern for AST traversal.
// Type parameter T is the return type of visit methods.
//
// Example usage for a support check:
//
//	type checker struct{ ok bool }
//	func (c *checker) VisitSwitchStmt(*SwitchStmt) bool { c.ok = false; return false }
//	// ... other methods
type Visitor[T any] interface {
	// Statements
	VisitBlock(*Block) T
	VisitExprStmt(*ExprStmt) T
	VisitEmptyStmt(*EmptyStmt) T
	VisitIfStmt(*IfStmt) T
	VisitContinueStmt(*ContinueStmt) T
	VisitBreakStmt(*BreakStmt) T
	VisitReturnStmt(*ReturnStmt) T
	VisitWithEnterStmt(*WithEnterStmt) T
	VisitWithExitStmt(*WithExitStmt) T
	VisitSwitchStmt(*SwitchStmt) T
	VisitDoWhileStmt(*DoWhileStmt) T
	VisitWhileStmt(*WhileStmt) T
	VisitForStmt(*ForStmt) T
	VisitForInStmt(*ForInStmt) T
	VisitTryCatchStmt(*TryCatchStmt) T
	VisitTryFinallyStmt(*TryFinallyStmt) T
	VisitDebuggerStmt(*DebuggerStmt) T

	// Expressions
	VisitFunctionLit(*FunctionLit) T
	VisitFunctionBoilerplateLit(*FunctionBoilerplateLit) T
	VisitConditional(*Conditional) T
	VisitVarRef(*VarRef) T
	VisitLiteral(*Literal) T
	VisitRegExpLit(*RegExpLit) T
	VisitObjectLit(*ObjectLit) T
	VisitArrayLit(*ArrayLit) T
	VisitCatchExtensionObject(*CatchExtensionObject) T
	VisitAssign(*Assign) T
	VisitThrow(*Throw) T
	VisitProperty(*Property) T
	VisitCall(*Call) T
	VisitCallNew(*CallNew) T
	VisitCallRuntime(*CallRuntime) T
	VisitUnary(*Unary) T
	VisitCountOp(*CountOp) T
	VisitBinary(*Binary) T
	VisitCompare(*Compare) T
	VisitThisFunction(*ThisFunction) T
}

// Accept dispatches node to the matching method of v.
func Accept[T any](node Node, v Visitor[T]) T {
	switch n := node.(type) {
	case *Block:
		return v.VisitBlock(n)
	case *ExprStmt:
		return v.VisitExprStmt(n)
	case *EmptyStmt:
		return v.VisitEmptyStmt(n)
	case *IfStmt:
		return v.VisitIfStmt(n)
	case *ContinueStmt:
		return v.VisitContinueStmt(n)
	case *BreakStmt:
		return v.VisitBreakStmt(n)
	case *ReturnStmt:
		return v.VisitReturnStmt(n)
	case *WithEnterStmt:
		return v.VisitWithEnterStmt(n)
	case *WithExitStmt:
		return v.VisitWithExitStmt(n)
	case *SwitchStmt:
		return v.VisitSwitchStmt(n)
	case *DoWhileStmt:
		return v.VisitDoWhileStmt(n)
	case *WhileStmt:
		return v.VisitWhileStmt(n)
	case *ForStmt:
		return v.VisitForStmt(n)
	case *ForInStmt:
		return v.VisitForInStmt(n)
	case *TryCatchStmt:
		return v.VisitTryCatchStmt(n)
	case *TryFinallyStmt:
		return v.VisitTryFinallyStmt(n)
	case *DebuggerStmt:
		return v.VisitDebuggerStmt(n)

	case *FunctionLit:
		return v.VisitFunctionLit(n)
	case *FunctionBoilerplateLit:
		return v.VisitFunctionBoilerplateLit(n)
	case *Conditional:
		return v.VisitConditional(n)
	case *VarRef:
		return v.VisitVarRef(n)
	case *Literal:
		return v.VisitLiteral(n)
	case *RegExpLit:
		return v.VisitRegExpLit(n)
	case *ObjectLit:
		return v.VisitObjectLit(n)
	case *ArrayLit:
		return v.VisitArrayLit(n)
	case *CatchExtensionObject:
		return v.VisitCatchExtensionObject(n)
	case *Assign:
		return v.VisitAssign(n)
	case *Throw:
		return v.VisitThrow(n)
	case *Property:
		return v.VisitProperty(n)
	case *Call:
		return v.VisitCall(n)
	case *CallNew:
		return v.VisitCallNew(n)
	case *CallRuntime:
		return v.VisitCallRuntime(n)
	case *Unary:
		return v.VisitUnary(n)
	case *CountOp:
		return v.VisitCountOp(n)
	case *Binary:
		return v.VisitBinary(n)
	case *Compare:
		return v.VisitCompare(n)
	case *ThisFunction:
		return v.VisitThisFunction(n)

	default:
		var zero T
		return zero
	}
}

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited. Walk does not descend
// into nested function bodies; callers that need them walk fn.Body
// themselves.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	// Statements
	case *Block:
		walkStmts(n.Stmts, fn)

	case *ExprStmt:
		walkExpr(n.Expr, fn)

	case *IfStmt:
		walkExpr(n.Cond, fn)
		walkStmt(n.Then, fn)
		walkStmt(n.Else, fn)

	case *ReturnStmt:
		walkExpr(n.Value, fn)

	case *WithEnterStmt:
		walkExpr(n.Expr, fn)

	case *SwitchStmt:
		walkExpr(n.Tag, fn)
		for _, c := range n.Cases {
			walkExpr(c.Label, fn)
			walkStmts(c.Body, fn)
		}

	case *DoWhileStmt:
		walkStmt(n.Body, fn)
		walkExpr(n.Cond, fn)

	case *WhileStmt:
		walkExpr(n.Cond, fn)
		walkStmt(n.Body, fn)

	case *ForStmt:
		walkStmt(n.Init, fn)
		walkExpr(n.Cond, fn)
		walkStmt(n.Next, fn)
		walkStmt(n.Body, fn)

	case *ForInStmt:
		walkExpr(n.Each, fn)
		walkExpr(n.Enumerable, fn)
		walkStmt(n.Body, fn)

	case *TryCatchStmt:
		if n.Try != nil {
			Walk(n.Try, fn)
		}
		if n.CatchVar != nil {
			Walk(n.CatchVar, fn)
		}
		if n.Catch != nil {
			Walk(n.Catch, fn)
		}

	case *TryFinallyStmt:
		if n.Try != nil {
			Walk(n.Try, fn)
		}
		if n.Finally != nil {
			Walk(n.Finally, fn)
		}

	case *EmptyStmt, *ContinueStmt, *BreakStmt, *WithExitStmt, *DebuggerStmt:
		// no children

	// Expressions
	case *FunctionLit, *FunctionBoilerplateLit, *Literal, *RegExpLit, *ThisFunction, *VarRef:
		// no children

	case *Conditional:
		walkExpr(n.Cond, fn)
		walkExpr(n.Then, fn)
		walkExpr(n.Else, fn)

	case *ObjectLit:
		for _, p := range n.Props {
			if p.Key != nil {
				Walk(p.Key, fn)
			}
			walkExpr(p.Value, fn)
		}

	case *ArrayLit:
		walkExprs(n.Values, fn)

	case *CatchExtensionObject:
		if n.Key != nil {
			Walk(n.Key, fn)
		}
		walkExpr(n.Value, fn)

	case *Assign:
		walkExpr(n.Target, fn)
		walkExpr(n.Value, fn)

	case *Throw:
		walkExpr(n.Exception, fn)

	case *Property:
		walkExpr(n.Obj, fn)
		walkExpr(n.Key, fn)

	case *Call:
		walkExpr(n.Callee, fn)
		walkExprs(n.Args, fn)

	case *CallNew:
		walkExpr(n.Callee, fn)
		walkExprs(n.Args, fn)

	case *CallRuntime:
		walkExprs(n.Args, fn)

	case *Unary:
		walkExpr(n.X, fn)

	case *CountOp:
		walkExpr(n.X, fn)

	case *Binary:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)

	case *Compare:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	}
}

func walkExpr(e Expr, fn func(Node) bool) {
	if e == nil {
		return
	}
	Walk(e, fn)
}

func walkStmt(s Stmt, fn func(Node) bool) {
	if s == nil {
		return
	}
	Walk(s, fn)
}

func walkStmts(stmts []Stmt, fn func(Node) bool) {
	for _, s := range stmts {
		walkStmt(s, fn)
	}
}

func walkExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		walkExpr(e, fn)
	}
}
