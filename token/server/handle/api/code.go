package api

type Code = int

// common
const (
	CodeSuccess       Code = 0
	CodeError500      Code = 500
	CodeParamsInvalid Code = 10000
	CodeDbError       Code = 10002
)

// protocol
const (
	CodeProtocolViolation Code = 20000
	CodeNoAdmissions      Code = 20001
	CodeUnknownService    Code = 20002
)
