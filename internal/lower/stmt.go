package lower

import (
	"fmt"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

func (l *lowerer) blockItems(items []ast.BlockItem) {
	for _, it := range items {
		if it.Decl != nil {
			l.localDecl(it.Decl)
			continue
		}
		l.stmt(it.Stmt)
	}
}

func (l *lowerer) localDecl(d *ast.Decl) {
	scope := l.scopes[len(l.scopes)-1]
	if d.Kind == ast.DeclFunc {
		fn := d.Func
		switch {
		case fn.IsDefinition():
			l.errorf(diag.LowNestedFunction, fn.NameSpan, source.Span{}, "function definition is not allowed here")
			return
		case fn.Storage == ast.StorageStatic:
			l.errorf(diag.LowInvalidStorageClass, fn.NameSpan, source.Span{}, "block-scope function declaration cannot be static")
			return
		}
		if prev, ok := scope[fn.Name]; ok && !prev.fn {
			l.errorf(diag.LowRedeclaration, fn.NameSpan, prev.span, "'%s' redeclared as a different kind of symbol", fn.Name)
			return
		}
		if sym := l.scope.Lookup(fn.Name); sym != nil && (sym.Kind != SymFunc || !types.Equal(sym.Type, fn.Type)) {
			l.errorf(diag.LowConflictingTypes, fn.NameSpan, l.scope.DeclSpan(fn.Name), "conflicting types for '%s'", fn.Name)
			return
		}
		scope[fn.Name] = &entry{name: fn.Name, typ: fn.Type, fn: true, extern: true, span: fn.NameSpan}
		return
	}

	v := d.Var
	if prev, ok := scope[v.Name]; ok && !(prev.extern && v.Storage == ast.StorageExtern) {
		l.errorf(diag.LowRedeclaration, v.NameSpan, prev.span, "redefinition of '%s'", v.Name)
		return
	}
	switch v.Storage {
	case ast.StorageExtern:
		if v.Init != nil {
			l.errorf(diag.LowInvalidStorageClass, v.NameSpan, source.Span{}, "extern variable '%s' cannot have an initializer here", v.Name)
			return
		}
		if sym := l.scope.Lookup(v.Name); sym != nil && (sym.Kind != SymStatic || !types.Equal(sym.Type, v.Type)) {
			l.errorf(diag.LowConflictingTypes, v.NameSpan, l.scope.DeclSpan(v.Name), "conflicting types for '%s'", v.Name)
			return
		}
		scope[v.Name] = &entry{name: v.Name, typ: v.Type, static: true, extern: true, span: v.NameSpan}

	case ast.StorageStatic:
		name := fmt.Sprintf("%s.%s.%d", l.fn.Name, v.Name, l.nameN)
		l.nameN++
		init := []tacky.StaticInit{tacky.ZeroInit(v.Type.Size())}
		if v.Init != nil {
			vals, ok := staticInitializer(v.Type, v.Init, l.r)
			if !ok {
				l.invalid = true
			}
			init = vals
		}
		l.statics = append(l.statics, tacky.StaticVar{Name: name, Type: v.Type, Init: init, Span: v.NameSpan})
		scope[v.Name] = &entry{name: name, typ: v.Type, static: true, span: v.NameSpan}

	default:
		e := l.declareLocal(v.Name, v.Type, v.NameSpan)
		if v.Init != nil {
			l.initLocal(tacky.Pseudo(e.name, v.Type), v.Type, v.Init)
		}
	}
}

// initLocal emits the initialization of an automatic variable.
func (l *lowerer) initLocal(dst tacky.Val, t *types.Type, init *ast.Initializer) {
	if !t.IsArray() {
		if init.Kind == ast.InitCompound {
			l.errorf(diag.LowInvalidInitializer, init.Span, source.Span{}, "brace-enclosed list cannot initialize a scalar")
			return
		}
		v := l.convertAssign(l.rvalue(init.Expr), t, "initialization")
		if !v.bad {
			l.emit(tacky.Instr{Kind: tacky.Copy, Src: v.val, Dst: dst, Span: init.Span})
		}
		return
	}
	l.initAggregate(dst, t, init, 0)
}

// initAggregate stores each scalar of init at its byte offset inside dst and
// zero-fills elements without an initializer.
func (l *lowerer) initAggregate(dst tacky.Val, t *types.Type, init *ast.Initializer, offset int64) {
	if !t.IsArray() {
		if init.Kind == ast.InitCompound {
			l.errorf(diag.LowInvalidInitializer, init.Span, source.Span{}, "brace-enclosed list cannot initialize a scalar")
			return
		}
		v := l.convertAssign(l.rvalue(init.Expr), t, "initialization")
		if !v.bad {
			l.emit(tacky.Instr{Kind: tacky.CopyToOffset, Src: v.val, Dst: dst, Offset: offset, Span: init.Span})
		}
		return
	}
	if init.Kind != ast.InitCompound {
		l.errorf(diag.LowInvalidInitializer, init.Span, source.Span{}, "array must be initialized with a brace-enclosed list")
		return
	}
	if int64(len(init.Items)) > t.Len {
		l.errorf(diag.LowInvalidInitializer, init.Items[t.Len].Span, source.Span{}, "too many elements in array initializer")
		return
	}
	elemSize := t.Elem.Size()
	for i, item := range init.Items {
		l.initAggregate(dst, t.Elem, item, offset+int64(i)*elemSize)
	}
	for i := int64(len(init.Items)); i < t.Len; i++ {
		l.zeroFill(dst, t.Elem, offset+i*elemSize, init.Span)
	}
}

func (l *lowerer) zeroFill(dst tacky.Val, t *types.Type, offset int64, sp source.Span) {
	if t.IsArray() {
		for i := range t.Len {
			l.zeroFill(dst, t.Elem, offset+i*t.Elem.Size(), sp)
		}
		return
	}
	l.emit(tacky.Instr{Kind: tacky.CopyToOffset, Src: zeroOf(t), Dst: dst, Offset: offset, Span: sp})
}

func (l *lowerer) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.ReturnData:
		ret := l.fn.Type.Ret
		if d.Value == nil {
			l.errorf(diag.LowTypeMismatch, s.Span, source.Span{}, "non-void function '%s' must return a value", l.fn.Name)
			return
		}
		v := l.convertAssign(l.rvalue(d.Value), ret, "return")
		l.emit(tacky.Instr{Kind: tacky.Return, Src: v.val, Span: s.Span})

	case ast.ExprStmtData:
		l.rvalue(d.Expr)

	case ast.IfData:
		c := l.condition(d.Cond)
		endLbl := l.newLabel("if_end")
		if d.Else == nil {
			l.emit(tacky.Instr{Kind: tacky.JumpIfZero, Src: c.val, Label: endLbl, Span: d.Cond.Span})
			l.stmt(d.Then)
			l.emit(tacky.Instr{Kind: tacky.Label, Label: endLbl, Span: s.Span})
			return
		}
		elseLbl := l.newLabel("if_else")
		l.emit(tacky.Instr{Kind: tacky.JumpIfZero, Src: c.val, Label: elseLbl, Span: d.Cond.Span})
		l.stmt(d.Then)
		l.emit(tacky.Instr{Kind: tacky.Jump, Label: endLbl, Span: s.Span})
		l.emit(tacky.Instr{Kind: tacky.Label, Label: elseLbl, Span: s.Span})
		l.stmt(d.Else)
		l.emit(tacky.Instr{Kind: tacky.Label, Label: endLbl, Span: s.Span})

	case ast.CompoundData:
		l.pushScope()
		l.blockItems(d.Items)
		l.popScope()

	case ast.WhileData:
		cont, brk := l.newLabel("continue"), l.newLabel("break")
		l.emit(tacky.Instr{Kind: tacky.Label, Label: cont, Span: s.Span})
		c := l.condition(d.Cond)
		l.emit(tacky.Instr{Kind: tacky.JumpIfZero, Src: c.val, Label: brk, Span: d.Cond.Span})
		l.loopBody(d.Body, brk, cont)
		l.emit(tacky.Instr{Kind: tacky.Jump, Label: cont, Span: s.Span})
		l.emit(tacky.Instr{Kind: tacky.Label, Label: brk, Span: s.Span})

	case ast.DoWhileData:
		start, cont, brk := l.newLabel("start"), l.newLabel("continue"), l.newLabel("break")
		l.emit(tacky.Instr{Kind: tacky.Label, Label: start, Span: s.Span})
		l.loopBody(d.Body, brk, cont)
		l.emit(tacky.Instr{Kind: tacky.Label, Label: cont, Span: s.Span})
		c := l.condition(d.Cond)
		l.emit(tacky.Instr{Kind: tacky.JumpIfNotZero, Src: c.val, Label: start, Span: d.Cond.Span})
		l.emit(tacky.Instr{Kind: tacky.Label, Label: brk, Span: s.Span})

	case ast.ForData:
		l.forStmt(d, s.Span)

	case ast.SwitchData:
		l.switchStmt(d, s.Span)

	case ast.CaseData:
		l.caseStmt(d, s.Span)

	case ast.DefaultData:
		if len(l.switches) == 0 {
			l.errorf(diag.LowCaseOutsideSwitch, s.Span.AtStart(), source.Span{}, "'default' label not within a switch statement")
			l.stmt(d.Body)
			return
		}
		sw := l.switches[len(l.switches)-1]
		if sw.defaultLbl != "" {
			l.errorf(diag.LowDuplicateDefault, s.Span.AtStart(), sw.defaultSpan, "multiple default labels in one switch")
			l.stmt(d.Body)
			return
		}
		sw.defaultLbl, sw.defaultSpan = l.newLabel("default"), s.Span.AtStart()
		l.emit(tacky.Instr{Kind: tacky.Label, Label: sw.defaultLbl, Span: s.Span})
		l.stmt(d.Body)

	case ast.LabeledData:
		mangled := l.userLabel(d.Label)
		if prev, dup := l.labels[d.Label]; dup {
			l.errorf(diag.LowDuplicateLabel, s.Span.AtStart(), prev.span, "redefinition of label '%s'", d.Label)
		} else {
			l.labels[d.Label] = userLabel{mangled: mangled, span: s.Span.AtStart()}
			l.emit(tacky.Instr{Kind: tacky.Label, Label: mangled, Span: s.Span})
		}
		l.stmt(d.Body)

	case ast.GotoData:
		l.gotos = append(l.gotos, gotoRef{label: d.Label, span: d.LabelSpan})
		l.emit(tacky.Instr{Kind: tacky.Jump, Label: l.userLabel(d.Label), Span: s.Span})

	default:
		switch s.Kind {
		case ast.StmtBreak:
			if len(l.breaks) == 0 {
				l.errorf(diag.LowBreakOutsideLoop, s.Span, source.Span{}, "'break' statement not in loop or switch statement")
				return
			}
			l.emit(tacky.Instr{Kind: tacky.Jump, Label: l.breaks[len(l.breaks)-1], Span: s.Span})
		case ast.StmtContinue:
			if len(l.continues) == 0 {
				l.errorf(diag.LowContinueOutsideLoop, s.Span, source.Span{}, "'continue' statement not in loop statement")
				return
			}
			l.emit(tacky.Instr{Kind: tacky.Jump, Label: l.continues[len(l.continues)-1], Span: s.Span})
		}
	}
}

func (l *lowerer) userLabel(name string) string {
	return fmt.Sprintf("%s.label.%s", l.fn.Name, name)
}

func (l *lowerer) loopBody(body *ast.Stmt, brk, cont string) {
	l.breaks = append(l.breaks, brk)
	l.continues = append(l.continues, cont)
	l.stmt(body)
	l.breaks = l.breaks[:len(l.breaks)-1]
	l.continues = l.continues[:len(l.continues)-1]
}

func (l *lowerer) forStmt(d ast.ForData, sp source.Span) {
	l.pushScope()
	defer l.popScope()

	switch {
	case d.Init.Decl != nil:
		v := d.Init.Decl
		if v.Storage != ast.StorageNone {
			l.errorf(diag.LowInvalidStorageClass, v.NameSpan, source.Span{}, "declaration in for loop initializer cannot be %s", v.Storage)
		} else {
			l.localDecl(&ast.Decl{Kind: ast.DeclVar, Span: v.Span, Var: v})
		}
	case d.Init.Expr != nil:
		l.rvalue(d.Init.Expr)
	}

	start, cont, brk := l.newLabel("start"), l.newLabel("continue"), l.newLabel("break")
	l.emit(tacky.Instr{Kind: tacky.Label, Label: start, Span: sp})
	if d.Cond != nil {
		c := l.condition(d.Cond)
		l.emit(tacky.Instr{Kind: tacky.JumpIfZero, Src: c.val, Label: brk, Span: d.Cond.Span})
	}
	l.loopBody(d.Body, brk, cont)
	l.emit(tacky.Instr{Kind: tacky.Label, Label: cont, Span: sp})
	if d.Post != nil {
		l.rvalue(d.Post)
	}
	l.emit(tacky.Instr{Kind: tacky.Jump, Label: start, Span: sp})
	l.emit(tacky.Instr{Kind: tacky.Label, Label: brk, Span: sp})
}

// switchStmt lowers the body first to learn its cases, then emits one
// compare-and-branch per case ahead of it and a jump to default or past the end.
func (l *lowerer) switchStmt(d ast.SwitchData, sp source.Span) {
	v := l.rvalue(d.Value)
	if !v.bad && !v.typ.IsInteger() {
		l.errorf(diag.LowInvalidSwitchType, d.Value.Span, source.Span{}, "switch quantity of type '%s' is not an integer", v.typ)
		v = placeholder(nil, d.Value.Span)
	}
	brk := l.newLabel("switch_end")
	sw := &switchCtx{typ: v.typ}

	save := l.body
	l.body = nil
	l.breaks = append(l.breaks, brk)
	l.switches = append(l.switches, sw)
	l.stmt(d.Body)
	l.switches = l.switches[:len(l.switches)-1]
	l.breaks = l.breaks[:len(l.breaks)-1]
	bodyCode := l.body
	l.body = save

	for _, c := range sw.cases {
		hit := l.newTemp(types.IntType)
		l.emit(tacky.Instr{Kind: tacky.Compare, Op: tacky.OpEqual, Src: v.val, Src2: tacky.Constant(c.value), Dst: hit, Span: c.span})
		l.emit(tacky.Instr{Kind: tacky.JumpIfNotZero, Src: hit, Label: c.label, Span: c.span})
	}
	target := brk
	if sw.defaultLbl != "" {
		target = sw.defaultLbl
	}
	l.emit(tacky.Instr{Kind: tacky.Jump, Label: target, Span: sp})
	l.body = append(l.body, bodyCode...)
	l.emit(tacky.Instr{Kind: tacky.Label, Label: brk, Span: sp})
}

func (l *lowerer) caseStmt(d ast.CaseData, sp source.Span) {
	if len(l.switches) == 0 {
		l.errorf(diag.LowCaseOutsideSwitch, sp.AtStart(), source.Span{}, "'case' label not within a switch statement")
		l.stmt(d.Body)
		return
	}
	sw := l.switches[len(l.switches)-1]
	c, ok := evalConst(d.Value)
	if !ok || !c.Type().IsInteger() {
		l.errorf(diag.LowNonConstantCase, d.Value.Span, source.Span{}, "case label does not reduce to an integer constant")
		l.stmt(d.Body)
		return
	}
	value := c.Convert(sw.typ.Kind)
	for _, prev := range sw.cases {
		if prev.value == value {
			l.errorf(diag.LowDuplicateCase, d.Value.Span, prev.span, "duplicate case value '%s'", value)
			l.stmt(d.Body)
			return
		}
	}
	label := l.newLabel("case")
	sw.cases = append(sw.cases, switchCase{value: value, label: label, span: d.Value.Span})
	l.emit(tacky.Instr{Kind: tacky.Label, Label: label, Span: sp})
	l.stmt(d.Body)
}
