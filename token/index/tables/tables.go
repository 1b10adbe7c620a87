package tables

var Tables = []interface{}{
	&TokenOutput{},
}
