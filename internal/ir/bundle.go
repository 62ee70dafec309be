package ir

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Bundle format:
// - Magic number (4 bytes): "CRIR"
// - Version (1 byte)
// - Gob-encoded Module

var bundleMagic = [4]byte{'C', 'R', 'I', 'R'}

const bundleVersion byte = 0x01

// EncodeBundle serializes a Module into the bundle interchange format the
// backends and the compile service consume.
func EncodeBundle(m *Module) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(bundleMagic[:])
	buf.WriteByte(bundleVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("bundle gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBundle parses bundle bytes back into a Module, validating the
// structure before handing it out.
func DecodeBundle(data []byte) (*Module, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("bundle data too short")
	}
	if !bytes.Equal(data[:4], bundleMagic[:]) {
		return nil, fmt.Errorf("invalid magic number, expected CRIR")
	}
	if data[4] != bundleVersion {
		return nil, fmt.Errorf("unsupported bundle version: %d (this build reads version %d)",
			data[4], bundleVersion)
	}

	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	var m Module
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("bundle gob decoding failed: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("bundle validation failed: %w", err)
	}
	return &m, nil
}

// Validate checks the structural integrity of a module: the entry unit
// exists, every block has in-range terminator targets, and every phi is
// edge-aligned.
func (m *Module) Validate() error {
	if m.Entry == "" {
		return fmt.Errorf("module has no entry unit")
	}
	if m.Unit(m.Entry) == nil {
		return fmt.Errorf("entry unit %q is not in the module", m.Entry)
	}
	for _, u := range m.Units {
		if err := u.validate(); err != nil {
			return fmt.Errorf("unit %s: %w", u.Name, err)
		}
	}
	return nil
}

func (u *Unit) validate() error {
	if len(u.Blocks) == 0 {
		return fmt.Errorf("no blocks")
	}
	if u.NumRegs < len(u.Params)+len(u.Captures) {
		return fmt.Errorf("register count %d below parameter frame", u.NumRegs)
	}
	for bi, b := range u.Blocks {
		for ii, ins := range b.Instrs {
			if ins.Op == OpPhi && len(ins.Args) != len(ins.Blocks) {
				return fmt.Errorf("block %d instr %d: phi args/edges mismatch", bi, ii)
			}
			if ins.Dst != RegNone && int(ins.Dst) >= u.NumRegs {
				return fmt.Errorf("block %d instr %d: register %d out of range", bi, ii, ins.Dst)
			}
		}
		switch b.Term.Kind {
		case TermJump:
			if b.Term.Then < 0 || b.Term.Then >= len(u.Blocks) {
				return fmt.Errorf("block %d: jump target %d out of range", bi, b.Term.Then)
			}
		case TermBranch:
			if b.Term.Then < 0 || b.Term.Then >= len(u.Blocks) ||
				b.Term.Else < 0 || b.Term.Else >= len(u.Blocks) {
				return fmt.Errorf("block %d: branch target out of range", bi)
			}
		case TermRet, TermMatchFail:
		default:
			return fmt.Errorf("block %d: unknown terminator kind %d", bi, b.Term.Kind)
		}
	}
	return nil
}
