package db

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"ember/parser"
	"ember/types"
)

// ProgramVersion is the serialized program format written by Writer.
// Version 1 stored a name expression as one identifier.
const ProgramVersion = 2

// Value type codes in serialized constants
const (
	TypeNone   = 0
	TypeNumber = 1
	TypeText   = 2
	TypeBool   = 3
)

// Writer serializes programs to the line-oriented program format
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a writer for program serialization
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Flush flushes the underlying buffer
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// --- Primitive writers ---

// writeInt writes an integer followed by newline
func (w *Writer) writeInt(i int) error {
	_, err := fmt.Fprintf(w.w, "%d\n", i)
	return err
}

// writeFloat writes a float with the shortest exact representation
func (w *Writer) writeFloat(f float64) error {
	_, err := fmt.Fprintf(w.w, "%s\n", strconv.FormatFloat(f, 'g', -1, 64))
	return err
}

// writeString writes a quoted string followed by newline
func (w *Writer) writeString(s string) error {
	_, err := fmt.Fprintf(w.w, "%s\n", strconv.Quote(s))
	return err
}

// writeBool writes a boolean as 1 or 0 followed by newline
func (w *Writer) writeBool(b bool) error {
	if b {
		return w.writeInt(1)
	}
	return w.writeInt(0)
}

// writeValue writes a constant: type code on its own line, then the value
func (w *Writer) writeValue(v types.Value) error {
	switch val := v.(type) {
	case types.NoneValue:
		return w.writeInt(TypeNone)
	case types.NumberValue:
		if val.Bool {
			if err := w.writeInt(TypeBool); err != nil {
				return err
			}
			return w.writeBool(val.Truthy())
		}
		if err := w.writeInt(TypeNumber); err != nil {
			return err
		}
		return w.writeFloat(val.Val)
	case types.TextValue:
		if err := w.writeInt(TypeText); err != nil {
			return err
		}
		return w.writeString(val.Value())
	}
	return types.NewError(types.E_SERIALIZATION, "cannot serialize constant of type %s", v.Type())
}

// WriteProgram writes the header and the program's root compound
func (w *Writer) WriteProgram(prog *parser.Program) error {
	if _, err := fmt.Fprintf(w.w, "** Ember Program v%d **\n", ProgramVersion); err != nil {
		return err
	}
	if err := w.writeString(prog.Source); err != nil {
		return err
	}
	if err := w.writeCompound(prog, prog.Root); err != nil {
		return err
	}
	return w.Flush()
}
