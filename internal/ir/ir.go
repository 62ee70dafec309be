package ir

// The intermediate representation is a control-flow graph per function over
// virtual registers of dynamic values. It is target-neutral: backends decide
// how registers, shape tags and dynamic dispatch are realized. Every struct
// here is gob-encodable (no interface-typed fields), so a Module round-trips
// through the bundle codec unchanged.

// Reg is a virtual register index within one Unit. Register 0 is valid;
// RegNone marks an unused operand slot.
type Reg int

const RegNone Reg = -1

// Op enumerates the instruction kinds.
type Op int

const (
	// OpConst loads Const into Dst.
	OpConst Op = iota
	// OpMove copies Args[0] into Dst.
	OpMove
	// OpBinOp applies the operator named Sym ("+", "==", "and", ...) to
	// Args[0] and Args[1].
	OpBinOp
	// OpUnOp applies the operator named Sym ("-", "!") to Args[0].
	OpUnOp
	// OpCall calls the statically resolved unit named Sym with Args.
	OpCall
	// OpCallValue calls the closure or function value in Args[0] with the
	// remaining Args.
	OpCallValue
	// OpDynCall dispatches method Sym on the receiver Args[0] by its
	// runtime shape tag, passing the remaining Args.
	OpDynCall
	// OpMakeStruct allocates a value tagged with shape Sym; Keys names the
	// fields, Args holds their values positionally.
	OpMakeStruct
	// OpFieldLoad reads field Sym from Args[0]. Safe marks ?. access:
	// a nil receiver yields nil instead of a runtime fault.
	OpFieldLoad
	// OpShapeTest sets Dst to whether Args[0] carries shape tag Sym.
	OpShapeTest
	// OpLitTest sets Dst to whether Args[0] equals Const.
	OpLitTest
	// OpNilTest sets Dst to whether Args[0] is nil.
	OpNilTest
	// OpMakeClosure builds a closure over unit Sym, capturing Args in the
	// order of the unit's Captures list.
	OpMakeClosure
	// OpGlobal reads the module-level binding named Sym.
	OpGlobal
	// OpSetGlobal writes Args[0] to the module-level binding named Sym.
	OpSetGlobal
	// OpPhi selects the value flowing in from the edge actually taken:
	// Args[i] when control arrived from block Blocks[i].
	OpPhi
)

var opNames = [...]string{
	OpConst:       "const",
	OpMove:        "move",
	OpBinOp:       "binop",
	OpUnOp:        "unop",
	OpCall:        "call",
	OpCallValue:   "callv",
	OpDynCall:     "dyncall",
	OpMakeStruct:  "mkstruct",
	OpFieldLoad:   "fldload",
	OpShapeTest:   "shapetest",
	OpLitTest:     "littest",
	OpNilTest:     "niltest",
	OpMakeClosure: "mkclosure",
	OpGlobal:      "global",
	OpSetGlobal:   "setglobal",
	OpPhi:         "phi",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op?"
}

// ConstKind discriminates constant values.
type ConstKind int

const (
	ConstNil ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
	ConstBool
)

// Constant is one literal value in a gob-friendly flat representation.
type Constant struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func NilConst() Constant { return Constant{Kind: ConstNil} }

func IntConst(v int64) Constant { return Constant{Kind: ConstInt, Int: v} }

func FloatConst(v float64) Constant { return Constant{Kind: ConstFloat, Float: v} }

func StringConst(v string) Constant { return Constant{Kind: ConstString, Str: v} }

func BoolConst(v bool) Constant { return Constant{Kind: ConstBool, Bool: v} }

// Instruction is one operation. Fields are shared across opcodes; each
// opcode's doc comment above says which fields it reads.
type Instruction struct {
	Op     Op
	Dst    Reg
	Args   []Reg
	Sym    string
	Keys   []string
	Blocks []int
	Const  Constant
	Safe   bool
	Line   int
	Column int
}

// TermKind enumerates block terminators.
type TermKind int

const (
	// TermJump continues at block Then.
	TermJump TermKind = iota
	// TermBranch continues at Then when Cond holds, Else otherwise.
	TermBranch
	// TermRet returns Val from the unit.
	TermRet
	// TermMatchFail raises the no-arm-matched runtime fault.
	TermMatchFail
)

// Terminator ends a basic block. Exactly one per block.
type Terminator struct {
	Kind   TermKind
	Cond   Reg
	Val    Reg
	Then   int
	Else   int
	Line   int
	Column int
}

// Block is one basic block: straight-line instructions plus a terminator.
type Block struct {
	Instrs []Instruction
	Term   Terminator
}

// Unit is the CFG of one function or closure. Blocks[0] is the entry.
// Registers 0..len(Params)-1 hold the parameters, followed by
// len(Captures) registers holding the captured environment.
type Unit struct {
	// Name is the mangled global name, e.g. "geometry/shapes.distance",
	// "app.$init" for a module's top-level code, or "app.main.$fn1" for
	// a closure.
	Name string

	// Module is the defining module's path.
	Module string

	Params   []string
	Captures []string
	NumRegs  int
	Blocks   []*Block
	Line     int
}

// ShapeField is one field of a shape record.
type ShapeField struct {
	Name     string
	TypeName string
	Optional bool
}

// ShapeRecord carries a struct declaration into the backends: the shape tag
// and field layout pattern tests and allocations are checked against.
type ShapeRecord struct {
	Name   string
	Module string
	Fields []ShapeField
}

// ConformanceRecord records one impl block: the dispatch table backends
// realize maps the target shape's method names to unit names.
type ConformanceRecord struct {
	Trait   string
	Target  string
	Module  string
	Methods []MethodBinding
}

// MethodBinding pairs a method name with the unit implementing it.
type MethodBinding struct {
	Name string
	Unit string
}

// ExportRecord lists one module's exported names.
type ExportRecord struct {
	Module string
	Names  []string
}

// Module is the complete lowered program: every unit reachable from the
// entry module, plus the side tables backends consume.
type Module struct {
	// BuildID identifies one lowering run; stamped by the lowerer.
	BuildID string

	// Entry is the name of the unit execution starts in.
	Entry string

	// Units are sorted by name for deterministic output.
	Units []*Unit

	Shapes       []ShapeRecord
	Conformances []ConformanceRecord
	Exports      []ExportRecord
}

// Unit returns the named unit, if present.
func (m *Module) Unit(name string) *Unit {
	for _, u := range m.Units {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Shape returns the record for a shape tag, if present.
func (m *Module) Shape(name string) *ShapeRecord {
	for i := range m.Shapes {
		if m.Shapes[i].Name == name {
			return &m.Shapes[i]
		}
	}
	return nil
}
