package xtc

import (
	"io"

	"github.com/pkg/errors"
)

// Read parses a 56-byte frame header from r.
//
// A clean end-of-trajectory (no bytes at all before the magic number) comes
// back as io.EOF, unwrapped, so callers enumerating frames can tell it apart
// from a truncated frame (io.ErrUnexpectedEOF) or real corruption with
// errors.Is.
func (h *Header) Read(r io.Reader) error {
	magic, err := ReadI32(r)
	if err != nil {
		return err
	}
	if magic != MagicNumber {
		return errors.Wrapf(ErrInvalidMagic, "found %d", magic)
	}

	natoms, err := ReadU32(r)
	if err != nil {
		return errors.Wrap(err, "xtc: reading natoms")
	}
	step, err := ReadU32(r)
	if err != nil {
		return errors.Wrap(err, "xtc: reading step")
	}
	time, err := ReadF32(r)
	if err != nil {
		return errors.Wrap(err, "xtc: reading time")
	}
	boxvec, err := ReadBoxVec(r)
	if err != nil {
		return errors.Wrap(err, "xtc: reading boxvec")
	}
	natomsRepeated, err := ReadU32(r)
	if err != nil {
		return errors.Wrap(err, "xtc: reading repeated natoms")
	}
	if natoms != natomsRepeated {
		return errors.Wrapf(ErrInvalidNumericField, "natoms %d != repeated natoms %d", natoms, natomsRepeated)
	}

	h.Magic = magic
	h.NAtoms = natoms
	h.Step = step
	h.Time = time
	h.BoxVec = boxvec
	h.NAtomsRepeated = natomsRepeated
	return nil
}
