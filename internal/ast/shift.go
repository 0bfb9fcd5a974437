package ast

// Shifted returns a deep copy of f with every span moved by delta bytes.
// Types are shared with f; everything holding a span is copied.
func (f *FuncDecl) Shifted(delta uint32) *FuncDecl {
	if f == nil {
		return nil
	}
	s := shifter(delta)
	out := *f
	out.NameSpan = f.NameSpan.Shift(delta)
	out.Span = f.Span.Shift(delta)
	if f.Params != nil {
		out.Params = make([]Param, len(f.Params))
		for i, p := range f.Params {
			out.Params[i] = Param{Name: p.Name, Span: p.Span.Shift(delta)}
		}
	}
	out.Body = s.stmt(f.Body)
	return &out
}

type shifter uint32

func (s shifter) decl(d *Decl) *Decl {
	if d == nil {
		return nil
	}
	out := *d
	out.Span = d.Span.Shift(uint32(s))
	out.Var = s.varDecl(d.Var)
	out.Func = d.Func.Shifted(uint32(s))
	return &out
}

func (s shifter) varDecl(v *VarDecl) *VarDecl {
	if v == nil {
		return nil
	}
	out := *v
	out.NameSpan = v.NameSpan.Shift(uint32(s))
	out.Span = v.Span.Shift(uint32(s))
	out.Init = s.init(v.Init)
	return &out
}

func (s shifter) init(in *Initializer) *Initializer {
	if in == nil {
		return nil
	}
	out := *in
	out.Span = in.Span.Shift(uint32(s))
	out.Expr = s.expr(in.Expr)
	if in.Items != nil {
		out.Items = make([]*Initializer, len(in.Items))
		for i, it := range in.Items {
			out.Items[i] = s.init(it)
		}
	}
	return &out
}

func (s shifter) stmt(st *Stmt) *Stmt {
	if st == nil {
		return nil
	}
	out := *st
	out.Span = st.Span.Shift(uint32(s))
	switch d := st.Data.(type) {
	case ReturnData:
		out.Data = ReturnData{Value: s.expr(d.Value)}
	case ExprStmtData:
		out.Data = ExprStmtData{Expr: s.expr(d.Expr)}
	case IfData:
		out.Data = IfData{Cond: s.expr(d.Cond), Then: s.stmt(d.Then), Else: s.stmt(d.Else)}
	case CompoundData:
		var items []BlockItem
		if d.Items != nil {
			items = make([]BlockItem, len(d.Items))
			for i, it := range d.Items {
				items[i] = BlockItem{Decl: s.decl(it.Decl), Stmt: s.stmt(it.Stmt)}
			}
		}
		out.Data = CompoundData{Items: items}
	case WhileData:
		out.Data = WhileData{Cond: s.expr(d.Cond), Body: s.stmt(d.Body)}
	case DoWhileData:
		out.Data = DoWhileData{Body: s.stmt(d.Body), Cond: s.expr(d.Cond)}
	case ForData:
		out.Data = ForData{
			Init: ForInit{Decl: s.varDecl(d.Init.Decl), Expr: s.expr(d.Init.Expr)},
			Cond: s.expr(d.Cond),
			Post: s.expr(d.Post),
			Body: s.stmt(d.Body),
		}
	case SwitchData:
		out.Data = SwitchData{Value: s.expr(d.Value), Body: s.stmt(d.Body)}
	case CaseData:
		out.Data = CaseData{Value: s.expr(d.Value), Body: s.stmt(d.Body)}
	case DefaultData:
		out.Data = DefaultData{Body: s.stmt(d.Body)}
	case LabeledData:
		out.Data = LabeledData{Label: d.Label, Body: s.stmt(d.Body)}
	case GotoData:
		out.Data = GotoData{Label: d.Label, LabelSpan: d.LabelSpan.Shift(uint32(s))}
	}
	return &out
}

func (s shifter) expr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	out := *e
	out.Span = e.Span.Shift(uint32(s))
	switch d := e.Data.(type) {
	case CastData:
		out.Data = CastData{Target: d.Target, Operand: s.expr(d.Operand)}
	case UnaryData:
		out.Data = UnaryData{Op: d.Op, Operand: s.expr(d.Operand)}
	case IncDecData:
		out.Data = IncDecData{Increment: d.Increment, Postfix: d.Postfix, Operand: s.expr(d.Operand)}
	case BinaryData:
		out.Data = BinaryData{Op: d.Op, Left: s.expr(d.Left), Right: s.expr(d.Right)}
	case AssignData:
		d.Left, d.Right = s.expr(d.Left), s.expr(d.Right)
		out.Data = d
	case ConditionalData:
		out.Data = ConditionalData{Cond: s.expr(d.Cond), Then: s.expr(d.Then), Else: s.expr(d.Else)}
	case CallData:
		var args []*Expr
		if d.Args != nil {
			args = make([]*Expr, len(d.Args))
			for i, a := range d.Args {
				args[i] = s.expr(a)
			}
		}
		out.Data = CallData{Callee: d.Callee, CalleeSpan: d.CalleeSpan.Shift(uint32(s)), Args: args}
	case DerefData:
		out.Data = DerefData{Operand: s.expr(d.Operand)}
	case AddrOfData:
		out.Data = AddrOfData{Operand: s.expr(d.Operand)}
	case SubscriptData:
		out.Data = SubscriptData{Base: s.expr(d.Base), Index: s.expr(d.Index)}
	}
	return &out
}
