package db

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ember/parser"
	"ember/types"
)

// Reader deserializes programs written by Writer
type Reader struct {
	r       *bufio.Reader
	line    int // lines consumed, for diagnostics
	version int
	prog    *parser.Program
}

// NewReader creates a reader over serialized program data
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadProgram reads one serialized program
func ReadProgram(r io.Reader) (*parser.Program, error) {
	return NewReader(r).ReadProgram()
}

// ReadProgram reads the header and the root compound
func (rd *Reader) ReadProgram() (*parser.Program, error) {
	header, err := rd.readLine()
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Sscanf(header, "** Ember Program v%d **", &rd.version); err != nil {
		return nil, rd.fail("bad header %q", header)
	}
	if rd.version < 1 || rd.version > ProgramVersion {
		return nil, rd.fail("unsupported program version %d", rd.version)
	}
	source, err := rd.readString()
	if err != nil {
		return nil, err
	}
	rd.prog = parser.NewProgram(source)
	if err := rd.readCompound(&rd.prog.Root); err != nil {
		return nil, err
	}
	return rd.prog, nil
}

// Version returns the format version of the program read
func (rd *Reader) Version() int {
	return rd.version
}

func (rd *Reader) fail(format string, args ...any) error {
	return types.NewError(types.E_SERIALIZATION, "line %d: %s", rd.line, fmt.Sprintf(format, args...))
}

// --- Primitive readers ---

// readLine reads a line and returns it without the newline
func (rd *Reader) readLine() (string, error) {
	line, err := rd.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", rd.fail("unexpected end of data")
		}
		return "", err
	}
	rd.line++
	return strings.TrimRight(line, "\n\r"), nil
}

// readInt reads an integer from the next line
func (rd *Reader) readInt() (int, error) {
	line, err := rd.readLine()
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, rd.fail("malformed integer %q", line)
	}
	return val, nil
}

// readCount reads a non-negative element count
func (rd *Reader) readCount() (int, error) {
	n, err := rd.readInt()
	if err == nil && n < 0 {
		return 0, rd.fail("negative count %d", n)
	}
	return n, err
}

func (rd *Reader) readFloat() (float64, error) {
	line, err := rd.readLine()
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, rd.fail("malformed number %q", line)
	}
	return val, nil
}

func (rd *Reader) readBool() (bool, error) {
	n, err := rd.readInt()
	return n != 0, err
}

// readString reads a quoted string
func (rd *Reader) readString() (string, error) {
	line, err := rd.readLine()
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(line)
	if err != nil {
		return "", rd.fail("malformed string %q", line)
	}
	return s, nil
}

func (rd *Reader) readStrings() ([]string, error) {
	n, err := rd.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := rd.readString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// readValue reads a type-tagged constant
func (rd *Reader) readValue() (types.Value, error) {
	code, err := rd.readInt()
	if err != nil {
		return nil, err
	}
	switch code {
	case TypeNone:
		return types.None, nil
	case TypeBool:
		b, err := rd.readBool()
		return types.NewBool(b), err
	case TypeNumber:
		f, err := rd.readFloat()
		return types.NewNumber(f), err
	case TypeText:
		s, err := rd.readString()
		return types.NewText(s), err
	}
	return nil, rd.fail("unknown value type %d", code)
}
