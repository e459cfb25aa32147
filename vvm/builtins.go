package vvm

// Operand describes one position of a builtin operator's signature: a
// primitive type, optionally in its vector (array) form.
type Operand struct {
	T     TypeID
	Array bool
}

// Op is a single overload of a builtin operator. Opcode is its VM
// mnemonic.
type Op struct {
	Name   string
	Opcode string
	Args   []Operand
	Ret    Operand
}

// Ops is the builtin operator table, in definition order. Overload
// resolution picks the first match, so scalar forms come before the
// broadcast forms.
var Ops []Op

func scalar(t TypeID) Operand { return Operand{T: t} }
func vector(t TypeID) Operand { return Operand{T: t, Array: true} }

var mnemonics = map[string]string{
	"+":   "add",
	"-":   "sub",
	"*":   "mul",
	"/":   "div",
	"%":   "mod",
	"<":   "lt",
	"<=":  "le",
	">":   "gt",
	">=":  "ge",
	"==":  "eq",
	"!=":  "ne",
	"!":   "not",
	"not": "not",
	"and": "and",
	"or":  "or",
}

func opcode(name string, ret Operand, args []Operand) string {
	m, ok := mnemonics[name]
	if !ok {
		m = name
	}
	code := m + "_" + args[0].T.VMName()
	for _, a := range args {
		if a.Array {
			code += "v"
			break
		}
	}
	_ = ret
	return code
}

func def(name string, ret Operand, args ...Operand) {
	Ops = append(Ops, Op{Name: name, Opcode: opcode(name, ret, args), Args: args, Ret: ret})
}

// broadcast registers the four shapes of a binary operator: scalar-scalar,
// then the vector forms, each returning the vector of ret.
func broadcast(name string, left, right, ret TypeID) {
	def(name, scalar(ret), scalar(left), scalar(right))
	def(name, vector(ret), vector(left), vector(right))
	def(name, vector(ret), vector(left), scalar(right))
	def(name, vector(ret), scalar(left), vector(right))
}

func init() {
	numeric := []TypeID{I64, F64}
	comparable := []TypeID{I64, F64, S, C8, B8, T64, D64}
	ordered := []TypeID{I64, F64, T64, D64}

	// arithmetic
	for _, t := range numeric {
		for _, op := range []string{"+", "-", "*", "/"} {
			broadcast(op, t, t, t)
		}
	}
	broadcast("%", I64, I64, I64)
	broadcast("+", S, S, S)
	broadcast("-", T64, T64, D64)
	broadcast("-", T64, D64, T64)
	broadcast("-", D64, D64, D64)
	broadcast("+", T64, D64, T64)
	broadcast("+", D64, T64, T64)
	broadcast("+", D64, D64, D64)

	// comparisons
	for _, t := range ordered {
		for _, op := range []string{"<", "<=", ">", ">="} {
			broadcast(op, t, t, B8)
		}
	}
	for _, t := range comparable {
		broadcast("==", t, t, B8)
		broadcast("!=", t, t, B8)
	}

	// boolean connectives
	broadcast("and", B8, B8, B8)
	broadcast("or", B8, B8, B8)

	// unary
	for _, t := range numeric {
		def("-", scalar(t), scalar(t))
		def("-", vector(t), vector(t))
	}
	def("!", scalar(B8), scalar(B8))
	def("!", vector(B8), vector(B8))
	def("not", scalar(B8), scalar(B8))
	def("not", vector(B8), vector(B8))

	// aggregations
	for _, t := range numeric {
		def("sum", scalar(t), vector(t))
		def("min", scalar(t), vector(t))
		def("max", scalar(t), vector(t))
	}
	def("min", scalar(T64), vector(T64))
	def("max", scalar(T64), vector(T64))
	for _, t := range numeric {
		def("mean", scalar(F64), vector(t))
		def("avg", scalar(F64), vector(t))
	}
	all := []TypeID{B8, C8, I64, F64, S, T64, D64}
	for _, t := range all {
		def("count", scalar(I64), vector(t))
		def("first", scalar(t), vector(t))
		def("last", scalar(t), vector(t))
	}
	def("len", scalar(I64), scalar(S))

	// user-defined literal constructors (5s, 100ms, ...)
	def("suffixs", scalar(D64), scalar(I64))
	def("suffixms", scalar(D64), scalar(I64))
	def("suffixus", scalar(D64), scalar(I64))
	def("suffixns", scalar(D64), scalar(I64))
}
