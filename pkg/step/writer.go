package step

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Encode writes the model as an exchange file
func Encode(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("ISO-10303-21;\nHEADER;\n")
	for _, rec := range m.Header {
		writeRecord(bw, rec)
		bw.WriteString(";\n")
	}
	bw.WriteString("ENDSEC;\nDATA;\n")

	for _, e := range m.Entities() {
		fmt.Fprintf(bw, "#%d=", e.ID)
		if e.Complex {
			bw.WriteByte('(')
			for _, rec := range e.Records {
				writeRecord(bw, rec)
			}
			bw.WriteByte(')')
		} else {
			writeRecord(bw, e.Records[0])
		}
		bw.WriteString(";\n")
	}
	bw.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")

	return bw.Flush()
}

// WriteFile writes the model to filename. A partially written file is
// removed when writing fails.
func WriteFile(filename string, m *Model) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Encode(file, m); err != nil {
		file.Close()
		os.Remove(filename)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, rec Record) {
	w.WriteString(rec.Type)
	writeParams(w, rec.Params)
}

func writeParams(w *bufio.Writer, params []Param) {
	w.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			w.WriteByte(',')
		}
		writeParam(w, p)
	}
	w.WriteByte(')')
}

func writeParam(w *bufio.Writer, p Param) {
	switch p.Kind {
	case KindUnset:
		w.WriteByte('$')
	case KindDerived:
		w.WriteByte('*')
	case KindRef:
		w.WriteByte('#')
		w.WriteString(strconv.Itoa(p.Ref))
	case KindString:
		w.WriteByte('\'')
		w.WriteString(p.Str)
		w.WriteByte('\'')
	case KindEnum:
		w.WriteByte('.')
		w.WriteString(p.Str)
		w.WriteByte('.')
	case KindBinary:
		w.WriteByte('"')
		w.WriteString(p.Str)
		w.WriteByte('"')
	case KindInteger:
		if p.Text != "" {
			w.WriteString(p.Text)
		} else {
			w.WriteString(strconv.FormatInt(p.Int, 10))
		}
	case KindReal:
		if p.Text != "" {
			w.WriteString(p.Text)
		} else {
			w.WriteString(FormatReal(p.Real))
		}
	case KindList:
		writeParams(w, p.List)
	case KindTyped:
		w.WriteString(p.Type)
		writeParams(w, p.List)
	}
}

// FormatReal spells f the way Part 21 requires: the mantissa always
// carries a decimal point, as in "1.", "0.5" or "1.E-05".
func FormatReal(f float64) string {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	if i := strings.IndexByte(s, 'E'); i >= 0 {
		return s[:i] + "." + s[i:]
	}
	return s + "."
}
