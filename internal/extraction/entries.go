package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// pipedEntry matches "#n / date / term". The field separators carry spaces so
// slash dates inside the entry stay intact.
var pipedEntry = regexp.MustCompile(`^#\s*(\d+)\s*/\s*(.*?)\s+/\s*(.*)$`)

// numberedDate matches "#n / date", a date cell entry without a term.
var numberedDate = regexp.MustCompile(`^#\s*(\d+)\s+/\s+(.*)$`)

// entry is one value of a repeated-entry cell.
type entry struct {
	date   string
	text   string
	number int
	piped  bool
}

// value is what a date cell entry contributes: its date field when piped,
// otherwise its raw text.
func (e entry) value() string {
	if e.piped {
		return e.date
	}
	return e.text
}

// splitEntries parses a cell holding one or more entries separated by "|".
// Entries starting with "#" are read as "#n / date / term" or "#n / date";
// anything else is
// kept as plain text. Blank entries keep their position.
func splitEntries(cell string) []entry {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, "|")
	entries := make([]entry, len(parts))
	for i, part := range parts {
		entries[i] = parseEntry(strings.TrimSpace(part))
	}
	return entries
}

func parseEntry(part string) entry {
	if part == "" || !strings.HasPrefix(part, "#") {
		return entry{text: part}
	}

	if m := pipedEntry.FindStringSubmatch(part); m != nil {
		n, _ := strconv.Atoi(m[1])
		return entry{number: n, date: strings.TrimSpace(m[2]), text: strings.TrimSpace(m[3]), piped: true}
	}

	if m := numberedDate.FindStringSubmatch(part); m != nil {
		n, _ := strconv.Atoi(m[1])
		return entry{number: n, date: strings.TrimSpace(m[2]), piped: true}
	}

	fields := strings.SplitN(part, "/", 3)
	if len(fields) < 2 {
		return entry{text: part}
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(fields[0]), "#")))
	if err != nil {
		return entry{text: part}
	}
	e := entry{number: n, date: strings.TrimSpace(fields[1]), piped: true}
	if len(fields) == 3 {
		e.text = strings.TrimSpace(fields[2])
	}
	return e
}

// candidate is a term read from a form together with the date recorded for it.
type candidate struct {
	term string
	date string
}

// pairEntries joins the entries of a term cell with those of its date cell.
// A piped term entry carries its own date; otherwise the date entry with the
// same number, or at the same position, is used.
func pairEntries(termCell, dateCell string) []candidate {
	terms := splitEntries(termCell)
	dates := splitEntries(dateCell)

	byNumber := make(map[int]string, len(dates))
	for _, d := range dates {
		if d.piped && d.number > 0 {
			byNumber[d.number] = d.value()
		}
	}

	candidates := make([]candidate, 0, len(terms))
	for i, t := range terms {
		if t.text == "" {
			continue
		}
		c := candidate{term: t.text}
		switch {
		case t.piped && t.date != "":
			c.date = t.date
		case t.piped && byNumber[t.number] != "":
			c.date = byNumber[t.number]
		case i < len(dates):
			c.date = dates[i].value()
		}
		candidates = append(candidates, c)
	}
	return candidates
}
