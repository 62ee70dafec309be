// Package esgen emits a lowered module as an ECMAScript module. Dynamic
// semantics (shape tags, dispatch by name, nil-safe field access) live in a
// small inline runtime prelude; everything else is plain functions over a
// register array.
package esgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/backend"
	"github.com/corrosion-lang/corrosion/internal/ir"
)

func init() {
	backend.Register(New())
}

// Emitter renders .mjs source.
type Emitter struct{}

func New() *Emitter { return &Emitter{} }

func (*Emitter) Target() string  { return "es" }
func (*Emitter) FileExt() string { return ".mjs" }

// prelude is the runtime every emitted module carries. Struct values are
// frozen objects tagged through the $tag property; dispatch tables are
// keyed by tag then method name.
const prelude = `const $G = Object.create(null);
const $U = Object.create(null);
const $M = Object.create(null);

function $struct(tag, fields) {
  return Object.freeze(Object.assign(Object.create(null), fields, { $tag: tag }));
}

function $is(v, tag) {
  return v !== null && typeof v === "object" && v.$tag === tag;
}

function $field(v, name, safe) {
  if (v === null || v === undefined) {
    if (safe) return null;
    throw new TypeError("field access ." + name + " on nil");
  }
  const out = v[name];
  return out === undefined ? null : out;
}

function $eq(a, b) {
  if (a === b) return true;
  if ($is(a, a && a.$tag) && $is(b, b && b.$tag) && a.$tag === b.$tag) {
    for (const k of Object.keys(a)) {
      if (k === "$tag") continue;
      if (!$eq(a[k], b[k])) return false;
    }
    return true;
  }
  return false;
}

function $truthy(v) {
  return v !== null && v !== undefined && v !== false;
}

function $closure(name, caps) {
  const unit = $U[name];
  return (...args) => unit(...args, ...caps);
}

function $dyncall(recv, name, args) {
  if (recv !== null && typeof recv === "object" && recv.$tag !== undefined) {
    const table = $M[recv.$tag];
    if (table && table[name]) return table[name](recv, ...args);
  }
  throw new TypeError("no method " + name + " on " + (recv === null ? "nil" : typeof recv));
}

function $fail(line, col) {
  throw new Error("match failed at " + line + ":" + col);
}

function $show(v) {
  if (v === null || v === undefined) return "nil";
  if (typeof v === "object" && v.$tag !== undefined) {
    const fields = Object.keys(v).filter((k) => k !== "$tag");
    return v.$tag + "{" + fields.map((k) => k + ": " + $show(v[k])).join(", ") + "}";
  }
  return String(v);
}

$U["print"] = (v) => { console.log($show(v)); return null; };
$U["panic"] = (v) => { throw new Error($show(v)); };
$U["len"] = (v) => {
  if (typeof v === "string") return v.length;
  throw new TypeError("len of " + $show(v));
};
$U["typeOf"] = (v) => {
  if (v === null || v === undefined) return "Nil";
  if (typeof v === "boolean") return "Bool";
  if (typeof v === "number") return Number.isInteger(v) ? "Int" : "Float";
  if (typeof v === "string") return "String";
  if (typeof v === "function") return "Fn";
  return v.$tag !== undefined ? v.$tag : "Object";
};
$U["toStr"] = (v) => $show(v);
`

// Emit renders the module.
func (*Emitter) Emit(m *ir.Module) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// build %s\n", m.BuildID)
	b.WriteString(prelude)
	b.WriteString("\n")

	for _, u := range m.Units {
		if err := emitUnit(&b, u); err != nil {
			return nil, err
		}
	}

	emitDispatch(&b, m)

	fmt.Fprintf(&b, "\nexport function main() {\n  return $U[%q]();\n}\nexport default main;\n", m.Entry)
	return []byte(b.String()), nil
}

// emitDispatch fills the method tables from the conformance records.
func emitDispatch(b *strings.Builder, m *ir.Module) {
	for _, c := range m.Conformances {
		tag := c.Module + "." + c.Target
		fmt.Fprintf(b, "$M[%q] = $M[%q] || Object.create(null);\n", tag, tag)
		for _, method := range c.Methods {
			fmt.Fprintf(b, "$M[%q][%q] = $U[%q];\n", tag, method.Name, method.Unit)
		}
	}
}

func emitUnit(b *strings.Builder, u *ir.Unit) error {
	arity := len(u.Params) + len(u.Captures)
	fmt.Fprintf(b, "$U[%q] = function (...$a) {\n", u.Name)
	fmt.Fprintf(b, "  const r = new Array(%d).fill(null);\n", u.NumRegs)
	if arity > 0 {
		fmt.Fprintf(b, "  for (let i = 0; i < %d; i++) r[i] = $a[i] === undefined ? null : $a[i];\n", arity)
	}

	if len(u.Blocks) == 1 {
		if err := emitBlock(b, u, 0, nil, "  "); err != nil {
			return err
		}
		b.WriteString("};\n\n")
		return nil
	}

	copies := phiCopies(u)
	b.WriteString("  let bb = 0;\n  for (;;) switch (bb) {\n")
	for i := range u.Blocks {
		fmt.Fprintf(b, "  case %d: {\n", i)
		if err := emitBlock(b, u, i, copies[i], "    "); err != nil {
			return err
		}
		b.WriteString("  }\n")
	}
	b.WriteString("  }\n};\n\n")
	return nil
}

type phiCopy struct {
	dst ir.Reg
	src ir.Reg
}

// phiCopies turns every phi into copies at the end of its predecessor
// blocks. The phi instruction itself then emits nothing: by the time
// control reaches it the destination register already holds the value that
// flowed in.
func phiCopies(u *ir.Unit) map[int][]phiCopy {
	out := map[int][]phiCopy{}
	for _, blk := range u.Blocks {
		for _, ins := range blk.Instrs {
			if ins.Op != ir.OpPhi {
				continue
			}
			for i, pred := range ins.Blocks {
				out[pred] = append(out[pred], phiCopy{dst: ins.Dst, src: ins.Args[i]})
			}
		}
	}
	return out
}

func emitBlock(b *strings.Builder, u *ir.Unit, idx int, copies []phiCopy, indent string) error {
	blk := u.Blocks[idx]
	for _, ins := range blk.Instrs {
		if ins.Op == ir.OpPhi {
			continue
		}
		line, err := renderInstr(ins)
		if err != nil {
			return fmt.Errorf("unit %s block %d: %w", u.Name, idx, err)
		}
		if line != "" {
			b.WriteString(indent + line + "\n")
		}
	}
	for _, c := range copies {
		fmt.Fprintf(b, "%sr[%d] = r[%d];\n", indent, c.dst, c.src)
	}

	switch blk.Term.Kind {
	case ir.TermJump:
		fmt.Fprintf(b, "%sbb = %d; break;\n", indent, blk.Term.Then)
	case ir.TermBranch:
		fmt.Fprintf(b, "%sbb = $truthy(r[%d]) ? %d : %d; break;\n", indent, blk.Term.Cond, blk.Term.Then, blk.Term.Else)
	case ir.TermRet:
		if blk.Term.Val == ir.RegNone {
			b.WriteString(indent + "return null;\n")
		} else {
			fmt.Fprintf(b, "%sreturn r[%d];\n", indent, blk.Term.Val)
		}
	case ir.TermMatchFail:
		fmt.Fprintf(b, "%s$fail(%d, %d);\n", indent, blk.Term.Line, blk.Term.Column)
	}
	return nil
}

func renderInstr(ins ir.Instruction) (string, error) {
	assign := func(expr string) string {
		if ins.Dst == ir.RegNone {
			return expr + ";"
		}
		return fmt.Sprintf("r[%d] = %s;", ins.Dst, expr)
	}
	reg := func(r ir.Reg) string { return fmt.Sprintf("r[%d]", r) }

	switch ins.Op {
	case ir.OpConst:
		return assign(renderConst(ins.Const)), nil
	case ir.OpMove:
		return assign(reg(ins.Args[0])), nil
	case ir.OpBinOp:
		return assign(renderBinOp(ins.Sym, reg(ins.Args[0]), reg(ins.Args[1]))), nil
	case ir.OpUnOp:
		if ins.Sym == "!" || ins.Sym == "not" {
			return assign("!$truthy(" + reg(ins.Args[0]) + ")"), nil
		}
		return assign("(" + ins.Sym + reg(ins.Args[0]) + ")"), nil
	case ir.OpCall:
		return assign(fmt.Sprintf("$U[%q](%s)", ins.Sym, regList(ins.Args))), nil
	case ir.OpCallValue:
		return assign(fmt.Sprintf("%s(%s)", reg(ins.Args[0]), regList(ins.Args[1:]))), nil
	case ir.OpDynCall:
		return assign(fmt.Sprintf("$dyncall(%s, %q, [%s])", reg(ins.Args[0]), ins.Sym, regList(ins.Args[1:]))), nil
	case ir.OpMakeStruct:
		fields := make([]string, len(ins.Keys))
		for i, k := range ins.Keys {
			fields[i] = fmt.Sprintf("%s: %s", strconv.Quote(k), reg(ins.Args[i]))
		}
		return assign(fmt.Sprintf("$struct(%q, { %s })", ins.Sym, strings.Join(fields, ", "))), nil
	case ir.OpFieldLoad:
		return assign(fmt.Sprintf("$field(%s, %q, %v)", reg(ins.Args[0]), ins.Sym, ins.Safe)), nil
	case ir.OpShapeTest:
		return assign(fmt.Sprintf("$is(%s, %q)", reg(ins.Args[0]), ins.Sym)), nil
	case ir.OpLitTest:
		return assign(fmt.Sprintf("$eq(%s, %s)", reg(ins.Args[0]), renderConst(ins.Const))), nil
	case ir.OpNilTest:
		return assign(fmt.Sprintf("(%s === null)", reg(ins.Args[0]))), nil
	case ir.OpMakeClosure:
		return assign(fmt.Sprintf("$closure(%q, [%s])", ins.Sym, regList(ins.Args))), nil
	case ir.OpGlobal:
		return assign(fmt.Sprintf("$field($G, %q, true)", ins.Sym)), nil
	case ir.OpSetGlobal:
		return fmt.Sprintf("$G[%q] = %s;", ins.Sym, reg(ins.Args[0])), nil
	case ir.OpPhi:
		return "", nil
	}
	return "", fmt.Errorf("unhandled opcode %v", ins.Op)
}

func regList(regs []ir.Reg) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = fmt.Sprintf("r[%d]", r)
	}
	return strings.Join(parts, ", ")
}

func renderBinOp(op, a, b string) string {
	switch op {
	case "==":
		return fmt.Sprintf("$eq(%s, %s)", a, b)
	case "!=":
		return fmt.Sprintf("!$eq(%s, %s)", a, b)
	case "and":
		return fmt.Sprintf("($truthy(%s) && $truthy(%s))", a, b)
	case "or":
		return fmt.Sprintf("($truthy(%s) || $truthy(%s))", a, b)
	default:
		return fmt.Sprintf("(%s %s %s)", a, op, b)
	}
}

func renderConst(c ir.Constant) string {
	switch c.Kind {
	case ir.ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ir.ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ir.ConstString:
		return strconv.Quote(c.Str)
	case ir.ConstBool:
		return strconv.FormatBool(c.Bool)
	}
	return "null"
}
