package constants

const (
	DefaultDBName = "tokend"
	DefaultDBUser = "root"
	DefaultDBPass = ""

	// DefaultQueryLimit caps unbounded list queries.
	DefaultQueryLimit = 100
)

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)
