package store

// Default and maximum page sizes for list queries
const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// ListOptions selects a page of records.
//
// Where maps column names to exact values. When Where is empty the query is
// restricted to rows that are not soft-deleted; a caller-supplied Where
// replaces that default.
type ListOptions struct {
	Where  map[string]any
	Limit  int
	Offset int
}

// normalize applies the default limit, caps it, and clamps the offset
func (o ListOptions) normalize() ListOptions {
	if o.Limit < 1 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
