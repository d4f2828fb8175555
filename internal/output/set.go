package output

// SheetSet groups sheets by name and remembers the order in which they were
// first created.
type SheetSet struct {
	order  []string
	sheets map[string]*Sheet
}

// NewSheetSet returns an empty set.
func NewSheetSet() *SheetSet {
	return &SheetSet{sheets: make(map[string]*Sheet)}
}

// Sheet returns the named sheet, creating it if needed.
func (s *SheetSet) Sheet(name string) *Sheet {
	if sh, ok := s.sheets[name]; ok {
		return sh
	}

	sh := NewSheet(name)
	s.sheets[name] = sh
	s.order = append(s.order, name)

	return sh
}

// Lookup returns the named sheet if it exists.
func (s *SheetSet) Lookup(name string) (*Sheet, bool) {
	sh, ok := s.sheets[name]
	return sh, ok
}

// Names returns the sheet names in creation order.
func (s *SheetSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Sheets returns the sheets in creation order.
func (s *SheetSet) Sheets() []*Sheet {
	out := make([]*Sheet, len(s.order))
	for i, name := range s.order {
		out[i] = s.sheets[name]
	}

	return out
}

// Len returns the total number of records across all sheets.
func (s *SheetSet) Len() int {
	n := 0
	for _, sh := range s.sheets {
		n += len(sh.Records)
	}

	return n
}
