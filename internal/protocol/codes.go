package protocol

// Status codes shared by the success and error paths. Clients branch on
// the code alone; severity is informational.
const (
	CodeReceived    = 10000
	CodeAuthSuccess = 20001
	CodeServerReady = 30000

	CodeGenericError  = 40000
	CodeInvalidInput  = 40001
	CodeAuthError     = 40100
	CodeInvalidTarget = 40401
	CodeInternalError = 50000
)
