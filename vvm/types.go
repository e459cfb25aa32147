// Package vvm holds the data tables of the Vector Virtual Machine that the
// rest of the compiler consults: the primitive type table and the builtin
// operator table. It deliberately contains no behaviour beyond lookups so
// that both sema and backend can depend on it.
package vvm

// TypeID indexes the fixed table of primitive VM types.
type TypeID int

const (
	B8 TypeID = iota // Bool
	C8               // Char
	I64              // Int64
	F64              // Float64
	S                // String
	T64              // Timestamp
	D64              // Timedelta

	NumTypes
)

// vmTypeStrings are the low-level names as they appear in VM assembly.
var vmTypeStrings = [NumTypes]string{
	B8:  "b8s",
	C8:  "c8s",
	I64: "i64s",
	F64: "f64s",
	S:   "Ss",
	T64: "t64s",
	D64: "d64s",
}

// EmpiricalTypeStrings are the surface-language names, used for diagnostics
// and for round-trippable type rendering.
var EmpiricalTypeStrings = [NumTypes]string{
	B8:  "Bool",
	C8:  "Char",
	I64: "Int64",
	F64: "Float64",
	S:   "String",
	T64: "Timestamp",
	D64: "Timedelta",
}

func (t TypeID) VMName() string {
	return vmTypeStrings[t]
}

func (t TypeID) String() string {
	return EmpiricalTypeStrings[t]
}

// TypeByName maps a surface-language type name back to its id.
func TypeByName(name string) (TypeID, bool) {
	for i, s := range EmpiricalTypeStrings {
		if s == name {
			return TypeID(i), true
		}
	}
	return 0, false
}
