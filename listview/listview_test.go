package listview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID    string
	Name  string
	Email string
}

func personFields(p person) []string { return []string{p.Name, p.Email} }

func personID(p person) string { return p.ID }

func people(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{
			ID:    fmt.Sprintf("%02d", i+1),
			Name:  fmt.Sprintf("Person %d", i+1),
			Email: fmt.Sprintf("p%d@example.com", i+1),
		}
	}
	return out
}

func TestFilter(t *testing.T) {
	items := []person{
		{ID: "1", Name: "Amina Diallo", Email: "amina@example.com"},
		{ID: "2", Name: "Marc Dupont", Email: "marc@EXAMPLE.com"},
		{ID: "3", Name: "Léa Martin", Email: "lea@corp.io"},
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"1", "2", "3"}},
		{term: "   ", want: []string{"1", "2", "3"}},
		{term: "MAR", want: []string{"2", "3"}},
		{term: "example.com", want: []string{"1", "2"}},
		{term: " diallo ", want: []string{"1"}},
		{term: "zzz", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.term, func(t *testing.T) {
			got := Filter(items, tc.term, personFields)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestFilter_CountMatchesContainment(t *testing.T) {
	items := people(25)
	for _, term := range []string{"1", "person 2", "@EXAMPLE", "p7@", "nobody"} {
		want := 0
		for _, p := range items {
			for _, f := range personFields(p) {
				if strings.Contains(strings.ToLower(f), strings.ToLower(term)) {
					want++
					break
				}
			}
		}
		assert.Len(t, Filter(items, term, personFields), want, term)
	}
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	items := people(3)
	got := Filter(items, "", personFields)
	got[0].Name = "changed"
	assert.Equal(t, "Person 1", items[0].Name)
}

func TestPaginate_TenItemsPageSizeSeven(t *testing.T) {
	items := people(10)

	p1 := Paginate(items, 1, 7)
	require.Len(t, p1.Items, 7)
	assert.Equal(t, "01", p1.Items[0].ID)
	assert.Equal(t, "07", p1.Items[6].ID)
	assert.Equal(t, 2, p1.TotalPages)
	assert.False(t, p1.HasPrev())
	assert.True(t, p1.HasNext())

	p2 := Paginate(items, 2, 7)
	require.Len(t, p2.Items, 3)
	assert.Equal(t, "08", p2.Items[0].ID)
	assert.Equal(t, "10", p2.Items[2].ID)
	assert.True(t, p2.HasPrev())
	assert.False(t, p2.HasNext(), "last page has no next")
	assert.Equal(t, 7, p2.Offset)
}

func TestPaginate_Bounds(t *testing.T) {
	items := people(20)

	tests := []struct {
		name      string
		page      int
		size      int
		wantPage  int
		wantLen   int
		wantPages int
	}{
		{name: "zero page", page: 0, size: 10, wantPage: 1, wantLen: 10, wantPages: 2},
		{name: "negative page", page: -3, size: 10, wantPage: 1, wantLen: 10, wantPages: 2},
		{name: "past the end", page: 9, size: 10, wantPage: 2, wantLen: 10, wantPages: 2},
		{name: "exact multiple", page: 2, size: 10, wantPage: 2, wantLen: 10, wantPages: 2},
		{name: "default size", page: 1, size: 0, wantPage: 1, wantLen: DefaultPageSize, wantPages: 2},
		{name: "single page", page: 1, size: 50, wantPage: 1, wantLen: 20, wantPages: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(items, tc.page, tc.size)
			assert.Equal(t, tc.wantPage, p.Number)
			assert.Len(t, p.Items, tc.wantLen)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Len(t, p.Pages(), tc.wantPages)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]person{}, 3, 7)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
	assert.Equal(t, 1, p.Prev())
	assert.Equal(t, 1, p.Next())
}

func TestPaginate_EveryItemOnExactlyOnePage(t *testing.T) {
	for _, n := range []int{0, 1, 6, 7, 8, 14, 15, 70, 71} {
		items := people(n)
		seen := map[string]int{}
		first := Paginate(items, 1, 7)
		for page := 1; page <= first.TotalPages; page++ {
			p := Paginate(items, page, 7)
			for i, item := range p.Items {
				seen[item.ID]++
				assert.Equal(t, items[p.Offset+i], item)
			}
		}
		assert.Len(t, seen, n, "n=%d", n)
		for id, count := range seen {
			assert.Equal(t, 1, count, "id %s on several pages", id)
		}
	}
}

func TestApply_SearchCollapsesPagination(t *testing.T) {
	items := people(10)
	items[1].Name = "Zoé Bernard"
	items[5].Name = "Zoé Petit"
	items[8].Name = "Zoé Roux"

	page := Apply(items, Query{Search: "zoé", Page: 2}, personFields, 7)

	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Number, "requested page is clamped to the single remaining page")
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Zoé Bernard", page.Items[0].Name)
}

func TestSelectPage_OnlyCurrentPage(t *testing.T) {
	items := people(10)
	page := Paginate(items, 2, 7)

	sel := SelectPage(page, personID)

	assert.Equal(t, []string{"08", "09", "10"}, sel.IDs())
	assert.True(t, AllSelected(page, sel, personID))
	assert.False(t, AllSelected(Paginate(items, 1, 7), sel, personID))
}

func TestSelection(t *testing.T) {
	sel := NewSelection("3", " ", "1", "")
	assert.Equal(t, []string{"1", "3"}, sel.IDs())

	sel.Toggle("1")
	sel.Toggle("2")
	assert.Equal(t, []string{"2", "3"}, sel.IDs())
	assert.True(t, sel.Has("2"))
	assert.False(t, sel.Has("1"))
	assert.Equal(t, 2, sel.Len())
}

func TestAllSelected_EmptyPage(t *testing.T) {
	page := Paginate([]person{}, 1, 7)
	assert.False(t, AllSelected(page, NewSelection("1"), personID))
}
