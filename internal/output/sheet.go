package output

// Record maps target column names to values.
type Record map[string]string

// Sheet is an ordered list of records of one target sheet. Columns lists
// every column set on any record, in first-seen order.
type Sheet struct {
	Name    string
	Columns []string
	Records []Record

	seen map[string]struct{}
}

// NewSheet returns an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, seen: make(map[string]struct{})}
}

// NewRecord appends an empty record and returns it.
func (s *Sheet) NewRecord() Record {
	rec := make(Record)
	s.Records = append(s.Records, rec)

	return rec
}

// Set sets a field on a record of this sheet.
func (s *Sheet) Set(rec Record, column, value string) {
	rec[column] = value
	s.AddColumn(column)
}

// AddColumn registers a column if it has not been seen yet.
func (s *Sheet) AddColumn(column string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
		for _, c := range s.Columns {
			s.seen[c] = struct{}{}
		}
	}

	if _, ok := s.seen[column]; ok {
		return
	}

	s.seen[column] = struct{}{}
	s.Columns = append(s.Columns, column)
}

// Append adds records, registering columns in the given order.
func (s *Sheet) Append(columns []string, records ...Record) {
	for _, c := range columns {
		s.AddColumn(c)
	}

	s.Records = append(s.Records, records...)
}

// Table returns the sheet as a header row followed by one row per record.
// Missing fields are empty.
func (s *Sheet) Table() [][]string {
	out := make([][]string, 0, len(s.Records)+1)
	out = append(out, append([]string(nil), s.Columns...))

	for _, rec := range s.Records {
		line := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			line[i] = rec[c]
		}

		out = append(out, line)
	}

	return out
}
