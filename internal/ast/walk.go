package ast

// Visitor is called for every node in depth-first order. Returning false skips
// the node's children.
type Visitor struct {
	Decl func(*Decl) bool
	Stmt func(*Stmt) bool
	Expr func(*Expr) bool
}

// Walk traverses tu.
func Walk(tu *TranslationUnit, v Visitor) {
	for _, d := range tu.Decls {
		walkDecl(d, v)
	}
}

func walkDecl(d *Decl, v Visitor) {
	if d == nil || (v.Decl != nil && !v.Decl(d)) {
		return
	}
	switch d.Kind {
	case DeclVar:
		walkInit(d.Var.Init, v)
	case DeclFunc:
		walkStmt(d.Func.Body, v)
	}
}

func walkInit(init *Initializer, v Visitor) {
	if init == nil {
		return
	}
	walkExpr(init.Expr, v)
	for _, it := range init.Items {
		walkInit(it, v)
	}
}

// WalkStmt traverses one statement subtree.
func WalkStmt(s *Stmt, v Visitor) {
	walkStmt(s, v)
}

func walkStmt(s *Stmt, v Visitor) {
	if s == nil || (v.Stmt != nil && !v.Stmt(s)) {
		return
	}
	switch d := s.Data.(type) {
	case ReturnData:
		walkExpr(d.Value, v)
	case ExprStmtData:
		walkExpr(d.Expr, v)
	case IfData:
		walkExpr(d.Cond, v)
		walkStmt(d.Then, v)
		walkStmt(d.Else, v)
	case CompoundData:
		for _, it := range d.Items {
			walkDecl(it.Decl, v)
			walkStmt(it.Stmt, v)
		}
	case WhileData:
		walkExpr(d.Cond, v)
		walkStmt(d.Body, v)
	case DoWhileData:
		walkStmt(d.Body, v)
		walkExpr(d.Cond, v)
	case ForData:
		if d.Init.Decl != nil {
			walkInit(d.Init.Decl.Init, v)
		}
		walkExpr(d.Init.Expr, v)
		walkExpr(d.Cond, v)
		walkExpr(d.Post, v)
		walkStmt(d.Body, v)
	case SwitchData:
		walkExpr(d.Value, v)
		walkStmt(d.Body, v)
	case CaseData:
		walkExpr(d.Value, v)
		walkStmt(d.Body, v)
	case DefaultData:
		walkStmt(d.Body, v)
	case LabeledData:
		walkStmt(d.Body, v)
	}
}

func walkExpr(e *Expr, v Visitor) {
	if e == nil || (v.Expr != nil && !v.Expr(e)) {
		return
	}
	switch d := e.Data.(type) {
	case CastData:
		walkExpr(d.Operand, v)
	case UnaryData:
		walkExpr(d.Operand, v)
	case IncDecData:
		walkExpr(d.Operand, v)
	case BinaryData:
		walkExpr(d.Left, v)
		walkExpr(d.Right, v)
	case AssignData:
		walkExpr(d.Left, v)
		walkExpr(d.Right, v)
	case ConditionalData:
		walkExpr(d.Cond, v)
		walkExpr(d.Then, v)
		walkExpr(d.Else, v)
	case CallData:
		for _, a := range d.Args {
			walkExpr(a, v)
		}
	case DerefData:
		walkExpr(d.Operand, v)
	case AddrOfData:
		walkExpr(d.Operand, v)
	case SubscriptData:
		walkExpr(d.Base, v)
		walkExpr(d.Index, v)
	}
}
