package pdfops

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// pdfcpu stamps the write time into the information dictionary and the
// file identifier, and numbers and orders objects by map iteration. The
// canonical form below removes all three so identical input always
// serializes to identical bytes.

var errNotCanonicalizable = errors.New("unexpected pdf layout")

var (
	objHeaderPattern = regexp.MustCompile(`^(\d+) (\d+) obj\r?\n`)
	rootRefPattern   = regexp.MustCompile(`/Root (\d+) \d+ R`)
	infoRefPattern   = regexp.MustCompile(`/Info (\d+) \d+ R`)

	// Writer stamps: the values pdfcpu sets on every write.
	writerStampPattern = regexp.MustCompile(`/(?:CreationDate|ModDate|Producer)(?:\((?:\\.|[^\\)])*\)|<[0-9A-Fa-f\s]*>)`)
)

type pdfRef struct {
	start, end int
	num        int
}

type pdfObject struct {
	num     int
	body    []byte // without the "N G obj" line
	refs    []pdfRef
	headEnd int
}

// canonicalize rewrites a document written with a classic cross-reference
// table. Objects reachable from the catalog and the information
// dictionary are renumbered in traversal order and laid out by number,
// writer stamps are dropped from the information dictionary and the file
// identifier becomes a digest of the object data.
func canonicalize(data []byte) ([]byte, error) {
	xrefOff, err := startXRef(data)
	if err != nil {
		return nil, err
	}
	offsets, trailer, err := parseXRefTable(data, xrefOff)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(trailer, []byte("/Encrypt")) {
		return data, nil
	}

	root, ok := trailerRef(rootRefPattern, trailer)
	if !ok {
		return nil, fmt.Errorf("%w: trailer has no root", errNotCanonicalizable)
	}
	info, hasInfo := trailerRef(infoRefPattern, trailer)

	objects, first, err := splitObjects(data, offsets, xrefOff)
	if err != nil {
		return nil, err
	}

	// Breadth-first from the roots; dict keys are already written sorted,
	// so the visiting order only depends on document structure.
	renumber := make(map[int]int, len(objects))
	var order []*pdfObject
	queue := []int{root}
	if hasInfo {
		queue = append(queue, info)
	}
	for len(queue) > 0 {
		num := queue[0]
		queue = queue[1:]
		obj, ok := objects[num]
		if !ok {
			continue
		}
		if _, seen := renumber[num]; seen {
			continue
		}
		renumber[num] = len(order) + 1
		order = append(order, obj)
		for _, r := range obj.refs {
			queue = append(queue, r.num)
		}
	}

	var buf bytes.Buffer
	buf.Write(data[:first])
	newOffsets := make([]int, len(order))
	for i, obj := range order {
		newOffsets[i] = buf.Len()
		head := rewriteRefs(obj, renumber)
		if hasInfo && obj.num == info {
			head = writerStampPattern.ReplaceAll(head, nil)
		}
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(head)
		buf.Write(obj.body[obj.headEnd:])
	}

	sum := md5.Sum(buf.Bytes())
	id := hex.EncodeToString(sum[:])

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(order)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range newOffsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<</ID[<%s> <%s>]", id, id)
	if n, ok := renumber[info]; hasInfo && ok {
		fmt.Fprintf(&buf, "/Info %d 0 R", n)
	}
	fmt.Fprintf(&buf, "/Root %d 0 R/Size %d>>\nstartxref\n%d\n%%%%EOF\n", renumber[root], len(order)+1, xrefPos)
	return buf.Bytes(), nil
}

func startXRef(data []byte) (int, error) {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("%w: no startxref", errNotCanonicalizable)
	}
	fields := bytes.Fields(data[i+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty startxref", errNotCanonicalizable)
	}
	off, err := strconv.Atoi(string(fields[0]))
	if err != nil || off <= 0 || off >= len(data) {
		return 0, fmt.Errorf("%w: bad startxref %q", errNotCanonicalizable, fields[0])
	}
	return off, nil
}

// parseXRefTable returns the offsets of in-use objects and the trailer
// dictionary text.
func parseXRefTable(data []byte, xrefOff int) (map[int]int, []byte, error) {
	rest := data[xrefOff:]
	if !bytes.HasPrefix(rest, []byte("xref")) {
		return nil, nil, fmt.Errorf("%w: cross-reference stream", errNotCanonicalizable)
	}
	tail := bytes.Index(rest, []byte("trailer"))
	if tail < 0 {
		return nil, nil, fmt.Errorf("%w: no trailer", errNotCanonicalizable)
	}

	offsets := map[int]int{}
	lines := bytes.Split(rest[len("xref"):tail], []byte("\n"))
	next, remaining := 0, 0
	for _, line := range lines {
		f := bytes.Fields(line)
		switch {
		case len(f) == 0:
			continue
		case remaining == 0 && len(f) == 2:
			start, err1 := strconv.Atoi(string(f[0]))
			size, err2 := strconv.Atoi(string(f[1]))
			if err1 != nil || err2 != nil {
				return nil, nil, fmt.Errorf("%w: bad subsection %q", errNotCanonicalizable, line)
			}
			next, remaining = start, size
		case remaining > 0 && len(f) == 3:
			if string(f[2]) == "n" {
				off, err := strconv.Atoi(string(f[0]))
				if err != nil {
					return nil, nil, fmt.Errorf("%w: bad entry %q", errNotCanonicalizable, line)
				}
				if off > 0 {
					offsets[next] = off
				}
			}
			next++
			remaining--
		default:
			return nil, nil, fmt.Errorf("%w: bad xref line %q", errNotCanonicalizable, line)
		}
	}

	trailer := rest[tail+len("trailer"):]
	if end := bytes.Index(trailer, []byte("startxref")); end >= 0 {
		trailer = trailer[:end]
	}
	return offsets, trailer, nil
}

func trailerRef(pattern *regexp.Regexp, trailer []byte) (int, bool) {
	m := pattern.FindSubmatch(trailer)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(m[1]))
	return n, err == nil
}

// splitObjects cuts the object bodies out of data using the xref offsets.
// It also returns the offset of the first object, which ends the header.
func splitObjects(data []byte, offsets map[int]int, xrefOff int) (map[int]*pdfObject, int, error) {
	byOffset := make([]int, 0, len(offsets))
	for num := range offsets {
		byOffset = append(byOffset, num)
	}
	sort.Slice(byOffset, func(i, j int) bool { return offsets[byOffset[i]] < offsets[byOffset[j]] })
	if len(byOffset) == 0 {
		return nil, 0, fmt.Errorf("%w: no objects", errNotCanonicalizable)
	}

	objects := make(map[int]*pdfObject, len(byOffset))
	for i, num := range byOffset {
		start := offsets[num]
		end := xrefOff
		if i+1 < len(byOffset) {
			end = offsets[byOffset[i+1]]
		}
		if start >= end || end > len(data) {
			return nil, 0, fmt.Errorf("%w: object %d out of order", errNotCanonicalizable, num)
		}
		chunk := data[start:end]
		m := objHeaderPattern.FindSubmatch(chunk)
		if m == nil || string(m[1]) != strconv.Itoa(num) {
			return nil, 0, fmt.Errorf("%w: object %d header", errNotCanonicalizable, num)
		}
		body := chunk[len(m[0]):]
		refs, headEnd := scanRefs(body)
		objects[num] = &pdfObject{num: num, body: body, refs: refs, headEnd: headEnd}
	}
	return objects, offsets[byOffset[0]], nil
}

func rewriteRefs(obj *pdfObject, renumber map[int]int) []byte {
	var out bytes.Buffer
	last := 0
	for _, r := range obj.refs {
		out.Write(obj.body[last:r.start])
		if n, ok := renumber[r.num]; ok {
			fmt.Fprintf(&out, "%d 0 R", n)
		} else {
			out.WriteString("null")
		}
		last = r.end
	}
	out.Write(obj.body[last:obj.headEnd])
	return out.Bytes()
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isPDFSpace(c)
}

// scanRefs finds the "N G R" references in an object's text, skipping
// strings, names and comments. Scanning stops at the stream keyword; the
// returned offset is where the stream (or the end of the body) begins.
func scanRefs(b []byte) ([]pdfRef, int) {
	var refs []pdfRef
	token := func(i int) int {
		for i < len(b) && !isPDFDelimiter(b[i]) {
			i++
		}
		return i
	}
	digits := func(s []byte) bool {
		if len(s) == 0 {
			return false
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	}
	skipSpace := func(i int) int {
		for i < len(b) && isPDFSpace(b[i]) {
			i++
		}
		return i
	}

	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '(':
			depth := 0
			for ; i < len(b); i++ {
				if b[i] == '\\' {
					i++
					continue
				}
				if b[i] == '(' {
					depth++
				} else if b[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
			}
		case c == '<' && i+1 < len(b) && b[i+1] == '<':
			i += 2
		case c == '<':
			if j := bytes.IndexByte(b[i:], '>'); j >= 0 {
				i += j + 1
			} else {
				i = len(b)
			}
		case c == '%':
			if j := bytes.IndexByte(b[i:], '\n'); j >= 0 {
				i += j + 1
			} else {
				i = len(b)
			}
		case c == '/':
			i = token(i + 1)
		case isPDFDelimiter(c):
			i++
		default:
			end := token(i)
			word := b[i:end]
			if string(word) == "stream" {
				// Keep the preceding end of line with the stream data.
				head := i
				for head > 0 && (b[head-1] == '\n' || b[head-1] == '\r') {
					head--
				}
				return refs, head
			}
			if digits(word) {
				num, _ := strconv.Atoi(string(word))
				g := skipSpace(end)
				gEnd := token(g)
				if g > end && digits(b[g:gEnd]) {
					r := skipSpace(gEnd)
					if r > gEnd && r < len(b) && b[r] == 'R' && (r+1 == len(b) || isPDFDelimiter(b[r+1])) {
						refs = append(refs, pdfRef{start: i, end: r + 1, num: num})
						i = r + 1
						continue
					}
				}
			}
			i = end
		}
	}
	return refs, len(b)
}
