// Package csvrecord lê exports CSV de terceiros em linhas header -> valor.
// Linhas malformadas viram LineError e a leitura segue.
package csvrecord

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineError registra uma linha descartada
type LineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e LineError) String() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

// Row é uma linha de dados com o número da linha física onde começa
type Row struct {
	Line   int
	Values map[string]string
}

// Get devolve o valor do header (vazio se ausente)
func (r Row) Get(header string) string { return r.Values[header] }

// Table é o resultado do parse
type Table struct {
	Headers []string
	Rows    []Row
	Errors  []LineError
}

// ParseString é um atalho para Parse sobre texto em memória
func ParseString(text string) (*Table, error) {
	return Parse(strings.NewReader(text))
}

// Parse lê o CSV linha física a linha física: aspas não atravessam quebras de linha,
// então uma aspa sem fechamento invalida só a própria linha. O erro de retorno é
// reservado a falhas de I/O; problemas de formato ficam em Table.Errors.
func Parse(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	t := &Table{}
	for line := 1; ; line++ {
		text, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if text == "" && err != nil {
			return t, nil
		}
		t.addLine(line, strings.TrimRight(text, "\r\n"))
		if err != nil {
			return t, nil
		}
	}
}

func (t *Table) addLine(line int, text string) {
	rec, err := readRecord(text, false)
	var perr *csv.ParseError
	if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrBareQuote) {
		// aspa solta em campo sem aspas (ex.: 7'3" tall) é texto literal
		rec, err = readRecord(text, true)
	}
	if err != nil {
		reason := err.Error()
		if errors.As(err, &perr) {
			reason = perr.Err.Error()
		}
		t.Errors = append(t.Errors, LineError{Line: line, Reason: reason})
		return
	}

	trimAll(rec)
	if blank(rec) {
		return
	}
	if t.Headers == nil {
		t.Headers = rec
		return
	}
	t.Rows = append(t.Rows, Row{Line: line, Values: t.rowValues(rec)})
}

// readRecord lê um único registro de uma linha; linha vazia devolve nil
func readRecord(text string, lazy bool) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = lazy
	rec, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return rec, err
}

// rowValues completa com vazio os campos faltantes e ignora os excedentes.
// Header repetido: vale a primeira ocorrência.
func (t *Table) rowValues(rec []string) map[string]string {
	out := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		if _, seen := out[h]; seen {
			continue
		}
		if i < len(rec) {
			out[h] = rec[i]
		} else {
			out[h] = ""
		}
	}
	return out
}

func trimAll(rec []string) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
