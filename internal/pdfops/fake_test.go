package pdfops

import (
	"fmt"
	"strconv"
	"strings"
)

// fakeCodec stands in for a real PDF library. A document's bytes are its
// page tokens separated by spaces ("A1 A2 A3"), which makes page order in
// outputs directly observable.
type fakeCodec struct {
	meta        map[string]Metadata
	extractErr  error
	extractions int
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{meta: map[string]Metadata{}}
}

// doc builds a source named name with n pages.
func (f *fakeCodec) doc(name string, n int) *SourceDocument {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = name + strconv.Itoa(i+1)
	}
	return NewSourceDocument(name, []byte(strings.Join(tokens, " ")), n, name)
}

func (f *fakeCodec) Open(name string, data []byte) (*SourceDocument, error) {
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableDocument, name)
	}
	if n < 1 {
		return nil, ErrEmptyDocument
	}
	return f.doc(name, n), nil
}

func (f *fakeCodec) ExtractPages(src *SourceDocument, pages []int) ([]byte, error) {
	f.extractions++
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if err := checkPages("extract", src.PageCount(), pages); err != nil {
		return nil, err
	}
	tokens := make([]string, len(pages))
	for i, p := range pages {
		tokens[i] = src.State().(string) + strconv.Itoa(p)
	}
	return []byte(strings.Join(tokens, " ")), nil
}

func (f *fakeCodec) Concat(parts [][]byte) ([]byte, error) {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = string(p)
	}
	return []byte(strings.Join(s, " ")), nil
}

func (f *fakeCodec) Info(src *SourceDocument) (DocumentInfo, error) {
	return DocumentInfo{
		PageCount:     src.PageCount(),
		FileSizeBytes: src.Size(),
		Metadata:      f.meta[src.Name()],
	}, nil
}

func (f *fakeCodec) SetMetadata(data []byte, meta *Metadata) ([]byte, error) {
	if meta == nil {
		return data, nil
	}
	return []byte(fmt.Sprintf("[%s|%s] %s", meta.Title, meta.Author, data)), nil
}
