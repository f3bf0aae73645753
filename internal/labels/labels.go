// Package labels reads class-id to name mappings from label text files.
//
// Each line holds one label, optionally prefixed by its integer id and a run of
// whitespace or colons:
//
//	0 person
//	1: bicycle
//	car
//
// Lines without an id take their zero-based line number.
package labels

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

type Map map[int]string

// maxLineSize bounds a single label line.
const maxLineSize = 1 << 20

var separator = regexp.MustCompile(`[:\s]+`)

func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels %q: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read labels %q: %w", path, err)
	}

	return m, nil
}

func Parse(r io.Reader) (Map, error) {
	m := make(Map)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for row := 0; scanner.Scan(); row++ {
		line := strings.TrimSpace(scanner.Text())
		pair := separator.Split(line, 2)

		if len(pair) == 2 && isDecimal(pair[0]) {
			if id, err := strconv.Atoi(pair[0]); err == nil {
				m[id] = strings.TrimSpace(pair[1])
				continue
			}
		}

		m[row] = line
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Name returns the label for id, or the id itself when the map has no entry.
func (m Map) Name(id int) string {
	if name, ok := m[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
