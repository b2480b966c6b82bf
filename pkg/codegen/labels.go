package codegen

import "fmt"

// label tracks one named jump target: its resolved address once defined,
// and every fixup site (a byte offset in the code buffer holding a
// placeholder 4-byte operand) waiting on that address.
type label struct {
	address int32
	defined bool
	fixups  []int
}

// LabelTable resolves named jump/call targets. emitJump (on CodeGen)
// records a fixup; defineLabel records the address; fixupLabels patches
// every recorded fixup once code generation is complete.
type LabelTable struct {
	labels map[string]*label
	n      int
}

func NewLabelTable() *LabelTable {
	return &LabelTable{labels: make(map[string]*label)}
}

func (lt *LabelTable) get(name string) *label {
	l, ok := lt.labels[name]
	if !ok {
		l = &label{}
		lt.labels[name] = l
	}
	return l
}

// NewName returns a fresh, unique internal label name built from prefix.
func (lt *LabelTable) NewName(prefix string) string {
	lt.n++
	return fmt.Sprintf("__%s_%d", prefix, lt.n)
}

func (lt *LabelTable) addFixup(name string, pos int) {
	lt.get(name).fixups = append(lt.get(name).fixups, pos)
}

func (lt *LabelTable) define(name string, addr int32) {
	l := lt.get(name)
	l.address = addr
	l.defined = true
}

// Undefined returns the names of every referenced but never-defined label.
func (lt *LabelTable) Undefined() []string {
	var out []string
	for name, l := range lt.labels {
		if !l.defined {
			out = append(out, name)
		}
	}
	return out
}
