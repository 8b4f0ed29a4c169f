package accounts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parsedFile keeps well-formed entries plus the names of records that could
// not be parsed, so a lookup can tell "absent" from "present but broken".
type parsedFile[T any] struct {
	entries   []*T
	malformed map[string]bool
}

func (pf *parsedFile[T]) markMalformed(line string) {
	name, _, _ := strings.Cut(line, ":")
	if name == "" {
		return
	}
	if pf.malformed == nil {
		pf.malformed = map[string]bool{}
	}
	pf.malformed[name] = true
}

func (pf *parsedFile[T]) isMalformed(name string) bool {
	return pf.malformed[name]
}

func parseColonLine(line string) []string {
	// Keep trailing empty fields.
	return strings.Split(line, ":")
}

func skipLine(line string) bool {
	trim := strings.TrimSpace(line)
	return trim == "" || strings.HasPrefix(trim, "#")
}

func readLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func atoi(field, ctx string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q in %s: %w", field, ctx, err)
	}
	return n, nil
}

// fullName returns the first comma-separated GECOS field.
func fullName(gecos string) string {
	name, _, _ := strings.Cut(gecos, ",")
	return strings.TrimSpace(name)
}
