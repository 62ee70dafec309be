// Package nativegen emits a lowered module as textual LLVM IR through
// llir/llvm. Values are boxed behind an i8* C ABI; every dynamic operation
// (arithmetic on boxed values, shape tests, dispatch by name) is a call into
// a crn_rt_* runtime the emitted module declares as externs. Register
// allocation is the classic alloca-per-register scheme; mem2reg is the
// optimizer's job.
package nativegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/corrosion-lang/corrosion/internal/backend"
	"github.com/corrosion-lang/corrosion/internal/config"
	cir "github.com/corrosion-lang/corrosion/internal/ir"
)

// builtinRuntime maps prelude builtins to the runtime externs that
// realize them. They take the builtins' place in the unit table so call
// sites need no special casing.
var builtinRuntime = map[string]string{
	config.PrintFuncName:  "crn_rt_print",
	config.PanicFuncName:  "crn_rt_panic",
	config.LenFuncName:    "crn_rt_len",
	config.TypeOfFuncName: "crn_rt_type_of",
	config.ToStrFuncName:  "crn_rt_to_str",
}

func init() {
	backend.Register(New())
}

// Emitter renders .ll source.
type Emitter struct{}

func New() *Emitter { return &Emitter{} }

func (*Emitter) Target() string  { return "native" }
func (*Emitter) FileExt() string { return ".ll" }

func (*Emitter) Emit(m *cir.Module) ([]byte, error) {
	g := newGenerator(m)
	if err := g.run(); err != nil {
		return nil, err
	}
	return []byte(g.mod.String()), nil
}

// generator holds per-module emission state.
type generator struct {
	src *cir.Module
	mod *ir.Module

	rt      map[string]*ir.Func
	funcs   map[string]*ir.Func
	strings map[string]value.Value
	strN    int
}

func newGenerator(src *cir.Module) *generator {
	return &generator{
		src:     src,
		mod:     ir.NewModule(),
		rt:      map[string]*ir.Func{},
		funcs:   map[string]*ir.Func{},
		strings: map[string]value.Value{},
	}
}

var boxed = types.I8Ptr

func (g *generator) run() error {
	g.declareRuntime()
	for name, sym := range builtinRuntime {
		g.funcs[name] = g.rt[sym]
	}

	// Declare every unit first so call sites can reference forward.
	for _, u := range g.src.Units {
		params := make([]*ir.Param, 0, len(u.Params)+len(u.Captures))
		for _, p := range u.Params {
			params = append(params, ir.NewParam(p, boxed))
		}
		for _, c := range u.Captures {
			params = append(params, ir.NewParam(c+".cap", boxed))
		}
		f := g.mod.NewFunc(u.Name, boxed, params...)
		f.Linkage = enum.LinkageInternal
		g.funcs[u.Name] = f
	}

	for _, u := range g.src.Units {
		if err := g.genUnit(u); err != nil {
			return err
		}
	}

	g.genModuleInit()
	g.genMain()
	return nil
}

// declareRuntime declares the boxed-value runtime externs.
func (g *generator) declareRuntime() {
	decl := func(name string, ret types.Type, params ...types.Type) {
		ps := make([]*ir.Param, len(params))
		for i, p := range params {
			ps[i] = ir.NewParam("", p)
		}
		g.rt[name] = g.mod.NewFunc(name, ret, ps...)
	}
	pp := types.NewPointer(boxed)

	decl("crn_rt_nil", boxed)
	decl("crn_rt_int", boxed, types.I64)
	decl("crn_rt_float", boxed, types.Double)
	decl("crn_rt_string", boxed, types.I8Ptr)
	decl("crn_rt_bool", boxed, types.I1)
	decl("crn_rt_binop", boxed, types.I8Ptr, boxed, boxed)
	decl("crn_rt_unop", boxed, types.I8Ptr, boxed)
	decl("crn_rt_truthy", types.I1, boxed)
	decl("crn_rt_struct_new", boxed, types.I8Ptr, types.I64)
	decl("crn_rt_struct_set", types.Void, boxed, types.I8Ptr, boxed)
	decl("crn_rt_field", boxed, boxed, types.I8Ptr, types.I1)
	decl("crn_rt_shape_test", boxed, boxed, types.I8Ptr)
	decl("crn_rt_lit_test", boxed, boxed, boxed)
	decl("crn_rt_nil_test", boxed, boxed)
	decl("crn_rt_closure", boxed, types.I8Ptr, types.I64, pp)
	decl("crn_rt_call_value", boxed, boxed, types.I64, pp)
	decl("crn_rt_dyn_call", boxed, boxed, types.I8Ptr, types.I64, pp)
	decl("crn_rt_global_get", boxed, types.I8Ptr)
	decl("crn_rt_global_set", types.Void, types.I8Ptr, boxed)
	decl("crn_rt_bind_method", types.Void, types.I8Ptr, types.I8Ptr, types.I8Ptr)
	decl("crn_rt_match_fail", types.Void, types.I64, types.I64)
	decl("crn_rt_print", boxed, boxed)
	decl("crn_rt_panic", boxed, boxed)
	decl("crn_rt_len", boxed, boxed)
	decl("crn_rt_type_of", boxed, boxed)
	decl("crn_rt_to_str", boxed, boxed)
}

// unitGen is the per-function emission state.
type unitGen struct {
	g      *generator
	unit   *cir.Unit
	fn     *ir.Func
	blocks []*ir.Block
	regs   []*ir.InstAlloca
	cur    *ir.Block
}

func (g *generator) genUnit(u *cir.Unit) error {
	ug := &unitGen{g: g, unit: u, fn: g.funcs[u.Name]}

	entry := ug.fn.NewBlock("entry")
	ug.regs = make([]*ir.InstAlloca, u.NumRegs)
	for i := range ug.regs {
		ug.regs[i] = entry.NewAlloca(boxed)
	}
	for i := range ug.regs {
		if i < len(ug.fn.Params) {
			entry.NewStore(ug.fn.Params[i], ug.regs[i])
		} else {
			entry.NewStore(constant.NewNull(boxed), ug.regs[i])
		}
	}

	ug.blocks = make([]*ir.Block, len(u.Blocks))
	for i := range u.Blocks {
		ug.blocks[i] = ug.fn.NewBlock(fmt.Sprintf("b%d", i))
	}
	entry.NewBr(ug.blocks[0])

	copies := phiCopies(u)
	for i, blk := range u.Blocks {
		ug.cur = ug.blocks[i]
		for _, ins := range blk.Instrs {
			if ins.Op == cir.OpPhi {
				continue
			}
			if err := ug.genInstr(ins); err != nil {
				return fmt.Errorf("unit %s block %d: %w", u.Name, i, err)
			}
		}
		for _, c := range copies[i] {
			ug.store(c.dst, ug.load(c.src))
		}
		ug.genTerm(blk.Term)
	}
	return nil
}

type phiCopy struct {
	dst cir.Reg
	src cir.Reg
}

// phiCopies rewrites phis as copies in their predecessor blocks; with every
// register living in an alloca the phi node itself has nothing left to do.
func phiCopies(u *cir.Unit) map[int][]phiCopy {
	out := map[int][]phiCopy{}
	for _, blk := range u.Blocks {
		for _, ins := range blk.Instrs {
			if ins.Op != cir.OpPhi {
				continue
			}
			for i, pred := range ins.Blocks {
				out[pred] = append(out[pred], phiCopy{dst: ins.Dst, src: ins.Args[i]})
			}
		}
	}
	return out
}

func (ug *unitGen) load(r cir.Reg) value.Value {
	return ug.cur.NewLoad(boxed, ug.regs[r])
}

func (ug *unitGen) store(r cir.Reg, v value.Value) {
	if r == cir.RegNone {
		return
	}
	ug.cur.NewStore(v, ug.regs[r])
}

func (ug *unitGen) call(rt string, args ...value.Value) value.Value {
	return ug.cur.NewCall(ug.g.rt[rt], args...)
}

// argArray spills boxed values into a stack array and returns an i8**
// pointing at its first slot, the form the variadic runtime entries take.
func (ug *unitGen) argArray(regs []cir.Reg) (value.Value, value.Value) {
	n := int64(len(regs))
	arrType := types.NewArray(uint64(len(regs)), boxed)
	arr := ug.cur.NewAlloca(arrType)
	for i, r := range regs {
		slot := ug.cur.NewGetElementPtr(arrType, arr,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		ug.cur.NewStore(ug.load(r), slot)
	}
	first := ug.cur.NewGetElementPtr(arrType, arr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	return first, constant.NewInt(types.I64, n)
}

func (ug *unitGen) genInstr(ins cir.Instruction) error {
	switch ins.Op {
	case cir.OpConst:
		ug.store(ins.Dst, ug.genConst(ins.Const))
	case cir.OpMove:
		ug.store(ins.Dst, ug.load(ins.Args[0]))
	case cir.OpBinOp:
		ug.store(ins.Dst, ug.call("crn_rt_binop", ug.g.str(ug.cur, ins.Sym), ug.load(ins.Args[0]), ug.load(ins.Args[1])))
	case cir.OpUnOp:
		ug.store(ins.Dst, ug.call("crn_rt_unop", ug.g.str(ug.cur, ins.Sym), ug.load(ins.Args[0])))
	case cir.OpCall:
		callee, ok := ug.g.funcs[ins.Sym]
		if !ok {
			return fmt.Errorf("call to unknown unit %q", ins.Sym)
		}
		args := make([]value.Value, len(ins.Args))
		for i, r := range ins.Args {
			args[i] = ug.load(r)
		}
		ug.store(ins.Dst, ug.cur.NewCall(callee, args...))
	case cir.OpCallValue:
		arr, n := ug.argArray(ins.Args[1:])
		ug.store(ins.Dst, ug.call("crn_rt_call_value", ug.load(ins.Args[0]), n, arr))
	case cir.OpDynCall:
		arr, n := ug.argArray(ins.Args[1:])
		ug.store(ins.Dst, ug.call("crn_rt_dyn_call", ug.load(ins.Args[0]), ug.g.str(ug.cur, ins.Sym), n, arr))
	case cir.OpMakeStruct:
		s := ug.call("crn_rt_struct_new", ug.g.str(ug.cur, ins.Sym), constant.NewInt(types.I64, int64(len(ins.Keys))))
		for i, key := range ins.Keys {
			ug.call("crn_rt_struct_set", s, ug.g.str(ug.cur, key), ug.load(ins.Args[i]))
		}
		ug.store(ins.Dst, s)
	case cir.OpFieldLoad:
		safe := constant.NewBool(ins.Safe)
		ug.store(ins.Dst, ug.call("crn_rt_field", ug.load(ins.Args[0]), ug.g.str(ug.cur, ins.Sym), safe))
	case cir.OpShapeTest:
		ug.store(ins.Dst, ug.call("crn_rt_shape_test", ug.load(ins.Args[0]), ug.g.str(ug.cur, ins.Sym)))
	case cir.OpLitTest:
		ug.store(ins.Dst, ug.call("crn_rt_lit_test", ug.load(ins.Args[0]), ug.genConst(ins.Const)))
	case cir.OpNilTest:
		ug.store(ins.Dst, ug.call("crn_rt_nil_test", ug.load(ins.Args[0])))
	case cir.OpMakeClosure:
		callee, ok := ug.g.funcs[ins.Sym]
		if !ok {
			return fmt.Errorf("closure over unknown unit %q", ins.Sym)
		}
		arr, n := ug.argArray(ins.Args)
		fnPtr := ug.cur.NewBitCast(callee, types.I8Ptr)
		ug.store(ins.Dst, ug.call("crn_rt_closure", fnPtr, n, arr))
	case cir.OpGlobal:
		ug.store(ins.Dst, ug.call("crn_rt_global_get", ug.g.str(ug.cur, ins.Sym)))
	case cir.OpSetGlobal:
		ug.call("crn_rt_global_set", ug.g.str(ug.cur, ins.Sym), ug.load(ins.Args[0]))
	case cir.OpPhi:
		// handled as predecessor copies
	default:
		return fmt.Errorf("unhandled opcode %v", ins.Op)
	}
	return nil
}

func (ug *unitGen) genTerm(t cir.Terminator) {
	switch t.Kind {
	case cir.TermJump:
		ug.cur.NewBr(ug.blocks[t.Then])
	case cir.TermBranch:
		cond := ug.call("crn_rt_truthy", ug.load(t.Cond))
		ug.cur.NewCondBr(cond, ug.blocks[t.Then], ug.blocks[t.Else])
	case cir.TermRet:
		if t.Val == cir.RegNone {
			ug.cur.NewRet(ug.call("crn_rt_nil"))
		} else {
			ug.cur.NewRet(ug.load(t.Val))
		}
	case cir.TermMatchFail:
		ug.call("crn_rt_match_fail",
			constant.NewInt(types.I64, int64(t.Line)), constant.NewInt(types.I64, int64(t.Column)))
		ug.cur.NewUnreachable()
	}
}

func (ug *unitGen) genConst(c cir.Constant) value.Value {
	switch c.Kind {
	case cir.ConstInt:
		return ug.call("crn_rt_int", constant.NewInt(types.I64, c.Int))
	case cir.ConstFloat:
		return ug.call("crn_rt_float", constant.NewFloat(types.Double, c.Float))
	case cir.ConstString:
		return ug.call("crn_rt_string", ug.g.str(ug.cur, c.Str))
	case cir.ConstBool:
		return ug.call("crn_rt_bool", constant.NewBool(c.Bool))
	}
	return ug.call("crn_rt_nil")
}

// str interns a NUL-terminated string literal and returns it as i8*.
func (g *generator) str(blk *ir.Block, s string) value.Value {
	if glob, ok := g.strings[s]; ok {
		return blk.NewBitCast(glob, types.I8Ptr)
	}
	glob := g.mod.NewGlobalDef(fmt.Sprintf(".str.%d", g.strN), constant.NewCharArrayFromString(s+"\x00"))
	glob.Linkage = enum.LinkageInternal
	glob.Immutable = true
	g.strN++
	g.strings[s] = glob
	return blk.NewBitCast(glob, types.I8Ptr)
}

// genModuleInit registers every conformance method with the runtime's
// dispatch tables.
func (g *generator) genModuleInit() {
	f := g.mod.NewFunc("crn_module_init", types.Void)
	blk := f.NewBlock("entry")
	for _, c := range g.src.Conformances {
		tag := c.Module + "." + c.Target
		for _, m := range c.Methods {
			impl, ok := g.funcs[m.Unit]
			if !ok {
				continue
			}
			fnPtr := blk.NewBitCast(impl, types.I8Ptr)
			blk.NewCall(g.rt["crn_rt_bind_method"], g.str(blk, tag), g.str(blk, m.Name), fnPtr)
		}
	}
	blk.NewRet(nil)
	g.funcs["crn_module_init"] = f
}

// genMain emits the C entry point: bind methods, run the start unit.
func (g *generator) genMain() {
	f := g.mod.NewFunc("main", types.I32)
	blk := f.NewBlock("entry")
	blk.NewCall(g.funcs["crn_module_init"])
	if start, ok := g.funcs[g.src.Entry]; ok {
		blk.NewCall(start)
	}
	blk.NewRet(constant.NewInt(types.I32, 0))
}
