package ledger

import "fmt"

// WarningCode categorizes conditions the ledger tolerates but reports.
type WarningCode string

const (
	WarnAutoCreatedComponent WarningCode = "AUTO_CREATED_COMPONENT"
	WarnDuplicateVersion     WarningCode = "DUPLICATE_VERSION"
	WarnUnknownSetup         WarningCode = "UNKNOWN_SETUP"
	WarnUnknownVersion       WarningCode = "UNKNOWN_VERSION"
	WarnEmptySetup           WarningCode = "EMPTY_SETUP"
)

// Warning is an advisory condition attached to an accepted operation.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func warnf(code WarningCode, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
