package core

// DBOrdering is an ORDER BY term requested by a caller. Repositories
// validate Field against their own allow-list before interpolating it.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}
