package pipeline

// Placed is an item positioned on a page. Top is the flow cursor at the
// moment of placement: the distance from the bottom edge of the page to the
// top edge of the item.
type Placed struct {
	Top  float64
	Item Item
}

// Page is the ordered content of one output page.
type Page struct {
	Items []Placed
}

// Flow lays items onto pages. An item that would cross the bottom margin
// starts a new page; a table that does not fit is split between rows with
// its header row repeated. Spacing never starts a page and is dropped at
// the top of one. The result always holds at least one page.
func Flow(items []Item, g Geometry) []Page {
	f := &flow{
		top:    g.PageHeight - g.MarginTop,
		bottom: g.MarginBottom,
	}
	f.cursor = f.top

	for _, it := range items {
		switch it.Kind {
		case ItemSpace:
			f.space(it.Space)
		case ItemTable:
			f.table(it.Table)
		default:
			f.place(it)
		}
	}

	f.pages = append(f.pages, f.current)
	return f.pages
}

type flow struct {
	top, bottom float64
	cursor      float64
	current     Page
	pages       []Page
}

func (f *flow) empty() bool {
	return len(f.current.Items) == 0
}

func (f *flow) fits(h float64) bool {
	return f.cursor-h >= f.bottom
}

func (f *flow) newPage() {
	f.pages = append(f.pages, f.current)
	f.current = Page{}
	f.cursor = f.top
}

// place puts an atomic unit at the cursor, breaking the page first if it
// would overflow. A unit taller than an empty page is placed anyway.
func (f *flow) place(it Item) {
	h := it.Height()
	if !f.fits(h) && !f.empty() {
		f.newPage()
	}
	f.current.Items = append(f.current.Items, Placed{Top: f.cursor, Item: it})
	f.cursor -= h
}

func (f *flow) space(h float64) {
	if f.empty() {
		return
	}
	f.cursor -= h
	if f.cursor < f.bottom {
		f.cursor = f.bottom
	}
}

func (f *flow) table(t *TableRegion) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	if f.fits(t.Height()) || len(t.Rows) == 1 {
		f.place(Item{Kind: ItemTable, Table: t})
		return
	}

	header := t.Rows[0]
	rest := t.Rows[1:]
	for len(rest) > 0 {
		used := header.Height
		n := 0
		for n < len(rest) && f.fits(used+rest[n].Height) {
			used += rest[n].Height
			n++
		}
		if n == 0 {
			if !f.empty() {
				f.newPage()
				continue
			}
			// Not even one row fits on an empty page; overflow it.
			used += rest[0].Height
			n = 1
		}

		rows := make([]TableRowLayout, 0, n+1)
		rows = append(rows, header)
		rows = append(rows, rest[:n]...)
		slice := &TableRegion{Columns: t.Columns, Rows: rows}

		f.current.Items = append(f.current.Items, Placed{Top: f.cursor, Item: Item{Kind: ItemTable, Table: slice}})
		f.cursor -= used
		rest = rest[n:]
		if len(rest) > 0 {
			f.newPage()
		}
	}
}
