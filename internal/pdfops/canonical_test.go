package pdfops

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// classicPDF lays out objs in the given order behind a classic
// cross-reference table.
func classicPDF(order []int, objs map[int]string, trailer string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n")
	offsets := map[int]int{}
	last := 0
	for _, n := range order {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, objs[n])
		last = max(last, n)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", last+1)
	for n := 1; n <= last; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&b, "%010d 00000 n \n", off)
		} else {
			b.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(&b, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return b.Bytes()
}

func TestCanonicalize_NumberingAndStamps(t *testing.T) {
	first := classicPDF([]int{9, 4, 7, 3}, map[int]string{
		7: "<</Pages 3 0 R/Type/Catalog>>",
		3: "<</Count 1/Kids[9 0 R]/Type/Pages>>",
		9: "<</MediaBox[0 0 612 792]/Parent 3 0 R/Type/Page>>",
		4: "<</CreationDate(D:20260101120000+00'00')/ModDate(D:20260101120000+00'00')/Producer(pdfcpu v0.11.1 dev)/Title(Keep \\(me\\))>>",
	}, "<</ID[<aa> <bb>]/Info 4 0 R/Root 7 0 R/Size 10>>")

	second := classicPDF([]int{2, 5, 6, 8}, map[int]string{
		2: "<</Pages 8 0 R/Type/Catalog>>",
		8: "<</Count 1/Kids[5 0 R]/Type/Pages>>",
		5: "<</MediaBox[0 0 612 792]/Parent 8 0 R/Type/Page>>",
		6: "<</CreationDate(D:20261018093015+02'00')/ModDate(D:20261018093016+02'00')/Producer(pdfcpu v0.11.1 dev)/Title(Keep \\(me\\))>>",
	}, "<</ID[<cc> <dd>]/Info 6 0 R/Root 2 0 R/Size 9>>")

	a, err := canonicalize(first)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	b, err := canonicalize(second)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same document gave different bytes:\n%s\n---\n%s", a, b)
	}

	for _, want := range []string{"1 0 obj\n<</Pages 3 0 R/Type/Catalog>>", "/Root 1 0 R", "/Info 2 0 R", "/Title(Keep \\(me\\))"} {
		if !bytes.Contains(a, []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, a)
		}
	}
	for _, stamp := range []string{"/CreationDate", "/ModDate", "/Producer", "<aa>"} {
		if bytes.Contains(a, []byte(stamp)) {
			t.Errorf("output still has %s", stamp)
		}
	}

	ctx, err := api.ReadContext(bytes.NewReader(a), newConfiguration())
	if err != nil {
		t.Fatalf("canonical output unreadable: %v", err)
	}
	if err := ctx.EnsurePageCount(); err != nil || ctx.PageCount != 1 {
		t.Errorf("PageCount = %d, err = %v", ctx.PageCount, err)
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no startxref", []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")},
		{"xref stream", []byte("%PDF-1.7\n1 0 obj\n<</Type/XRef>>\nendobj\nstartxref\n9\n%%EOF\n")},
		{"no root", classicPDF([]int{1}, map[int]string{1: "<<>>"}, "<</Size 2>>")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := canonicalize(tt.data); !errors.Is(err, errNotCanonicalizable) {
				t.Errorf("error = %v, want errNotCanonicalizable", err)
			}
		})
	}
}

func TestScanRefs(t *testing.T) {
	body := []byte("<</Length 12/Ref 4 0 R/S(5 0 R \\) 6 0 R)/H<7 0 R>/Box[0 0 612 792]/N 10 0 R>>\nstream\n8 0 R binary\nendstream\nendobj\n")
	refs, headEnd := scanRefs(body)

	var nums []int
	for _, r := range refs {
		nums = append(nums, r.num)
	}
	if fmt.Sprint(nums) != "[4 10]" {
		t.Errorf("refs = %v, want [4 10]", nums)
	}
	if got := string(body[headEnd:]); got[:len("\nstream\n")] != "\nstream\n" {
		t.Errorf("head ends at %q", got)
	}
	if string(body[refs[0].start:refs[0].end]) != "4 0 R" {
		t.Errorf("ref span = %q", body[refs[0].start:refs[0].end])
	}
}
