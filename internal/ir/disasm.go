package ir

import (
	"fmt"
	"strconv"
	"strings"
)

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstString:
		return strconv.Quote(c.Str)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	}
	return "nil"
}

// Disassemble renders the module as readable text. The dump is what
// `--emit=ir` writes; tests compare call sites through it.
func (m *Module) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module build=%s entry=%s\n", m.BuildID, m.Entry)
	for _, s := range m.Shapes {
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = f.Name
			if f.Optional {
				fields[i] += "?"
			}
			if f.TypeName != "" {
				fields[i] += ": " + f.TypeName
			}
		}
		fmt.Fprintf(&b, "shape %s.%s {%s}\n", s.Module, s.Name, strings.Join(fields, ", "))
	}
	for _, c := range m.Conformances {
		methods := make([]string, len(c.Methods))
		for i, mb := range c.Methods {
			methods[i] = mb.Name + "=" + mb.Unit
		}
		fmt.Fprintf(&b, "impl %s for %s.%s {%s}\n", c.Trait, c.Module, c.Target, strings.Join(methods, ", "))
	}
	for _, e := range m.Exports {
		fmt.Fprintf(&b, "exports %s: %s\n", e.Module, strings.Join(e.Names, ", "))
	}
	for _, u := range m.Units {
		b.WriteString(u.Disassemble())
	}
	return b.String()
}

// Disassemble renders one unit's CFG.
func (u *Unit) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nunit %s(%s)", u.Name, strings.Join(u.Params, ", "))
	if len(u.Captures) > 0 {
		fmt.Fprintf(&b, " captures(%s)", strings.Join(u.Captures, ", "))
	}
	fmt.Fprintf(&b, " regs=%d\n", u.NumRegs)
	for bi, blk := range u.Blocks {
		fmt.Fprintf(&b, "b%d:\n", bi)
		for _, ins := range blk.Instrs {
			b.WriteString("  " + ins.String() + "\n")
		}
		b.WriteString("  " + blk.Term.String() + "\n")
	}
	return b.String()
}

func (ins Instruction) String() string {
	var b strings.Builder
	if ins.Dst != RegNone {
		fmt.Fprintf(&b, "r%d = ", ins.Dst)
	}
	b.WriteString(ins.Op.String())
	switch ins.Op {
	case OpConst, OpLitTest:
		b.WriteString(" " + ins.Const.String())
	case OpBinOp, OpUnOp, OpCall, OpDynCall, OpMakeStruct, OpFieldLoad,
		OpShapeTest, OpMakeClosure, OpGlobal, OpSetGlobal:
		b.WriteString(" " + ins.Sym)
	}
	if ins.Op == OpFieldLoad && ins.Safe {
		b.WriteString("?")
	}
	for i, a := range ins.Args {
		sep := " "
		if i > 0 {
			sep = ", "
		}
		fmt.Fprintf(&b, "%sr%d", sep, a)
		if ins.Op == OpPhi && i < len(ins.Blocks) {
			fmt.Fprintf(&b, "@b%d", ins.Blocks[i])
		}
	}
	if ins.Op == OpMakeStruct && len(ins.Keys) > 0 {
		b.WriteString(" {" + strings.Join(ins.Keys, ", ") + "}")
	}
	return b.String()
}

func (t Terminator) String() string {
	switch t.Kind {
	case TermJump:
		return fmt.Sprintf("jump b%d", t.Then)
	case TermBranch:
		return fmt.Sprintf("branch r%d ? b%d : b%d", t.Cond, t.Then, t.Else)
	case TermRet:
		if t.Val == RegNone {
			return "ret"
		}
		return fmt.Sprintf("ret r%d", t.Val)
	case TermMatchFail:
		return "matchfail"
	}
	return "term?"
}
