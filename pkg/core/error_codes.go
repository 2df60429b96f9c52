package core

import "fmt"

// ResultCode is the numeric result reported by the exchange in reply frames.
type ResultCode int

// Result codes documented by the exchange.
const (
	CodeSuccess             ResultCode = 1000
	CodeGeneralError        ResultCode = 1001
	CodeInternalError       ResultCode = 1002
	CodeAuthFailed          ResultCode = 1003
	CodeSafePasswordLocked  ResultCode = 1004
	CodeSafePasswordWrong   ResultCode = 1005
	CodeIdentityUnverified  ResultCode = 1006
	CodeMaintenance         ResultCode = 1009
	CodeInsufficientBalance ResultCode = 2009
	CodeOrderNotFound       ResultCode = 3001
	CodeInvalidPrice        ResultCode = 3002
	CodeInvalidAmount       ResultCode = 3003
	CodeUserNotFound        ResultCode = 3004
	CodeInvalidParameter    ResultCode = 3005
	CodeInvalidIP           ResultCode = 3006
	CodeRequestExpired      ResultCode = 3007
	CodeTradeRecordNotFound ResultCode = 3008
	CodeAPILocked           ResultCode = 4001
	CodeTooFrequent         ResultCode = 4002
)

var resultMessages = map[ResultCode]string{
	CodeSuccess:             "success",
	CodeGeneralError:        "general error",
	CodeInternalError:       "internal error",
	CodeAuthFailed:          "authentication failed",
	CodeSafePasswordLocked:  "safe password locked",
	CodeSafePasswordWrong:   "safe password incorrect",
	CodeIdentityUnverified:  "identity verification pending or rejected",
	CodeMaintenance:         "interface under maintenance",
	CodeOrderNotFound:       "order not found",
	CodeInvalidPrice:        "invalid price",
	CodeInvalidAmount:       "invalid amount",
	CodeUserNotFound:        "user does not exist",
	CodeInvalidParameter:    "invalid parameter",
	CodeInvalidIP:           "invalid or unbound IP address",
	CodeRequestExpired:      "request expired",
	CodeTradeRecordNotFound: "trade record not found",
	CodeAPILocked:           "API locked or not enabled",
	CodeTooFrequent:         "requests too frequent",
}

// IsSuccess reports whether the code signals a successful command.
func (c ResultCode) IsSuccess() bool {
	return c == CodeSuccess
}

// IsInsufficientBalance reports whether the code is one of the per-currency
// balance errors (2001-2009).
func (c ResultCode) IsInsufficientBalance() bool {
	return c >= 2001 && c <= 2009
}

// String returns a human-readable description of the code.
func (c ResultCode) String() string {
	if msg, ok := resultMessages[c]; ok {
		return msg
	}
	if c.IsInsufficientBalance() {
		return "insufficient balance"
	}
	return fmt.Sprintf("result code %d", int(c))
}
