package pagination

import "testing"

func TestNormalizeBounds(t *testing.T) {
	p := Pagination{Page: 0, Size: -5}.Normalize(0)
	if p.Page != 1 || p.Size != 20 {
		t.Fatalf("expected defaults, got page=%d size=%d", p.Page, p.Size)
	}

	p = Pagination{Page: 3, Size: 5000}.Normalize(1000)
	if p.Size != 1000 {
		t.Fatalf("expected size capped at 1000, got %d", p.Size)
	}
	if p.Offset() != 2000 {
		t.Fatalf("expected offset 2000, got %d", p.Offset())
	}
}

func TestExhausted(t *testing.T) {
	cases := []struct {
		page, size int
		total      int64
		want       bool
	}{
		{1, 100, 250, false},
		{2, 100, 250, false},
		{3, 100, 250, true},
		{1, 100, 100, true},
		{1, 100, 0, true},
	}
	for _, tc := range cases {
		p := Pagination{Page: tc.page, Size: tc.size}
		if got := p.Exhausted(tc.total); got != tc.want {
			t.Fatalf("page=%d size=%d total=%d: expected %v, got %v", tc.page, tc.size, tc.total, got, tc.want)
		}
	}
}
