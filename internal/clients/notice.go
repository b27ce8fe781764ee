package clients

import "github.com/diewo77/client-ledger/i18n"

// Notice levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notice is a one-shot message for the user about the last operation.
type Notice struct {
	Level string `json:"level"`
	Code  string `json:"code"`
	// Demo marks operations that only touched the session's demo mirror.
	Demo bool `json:"demo,omitempty"`
}

// Text renders the notice in lang.
func (n Notice) Text(lang string) string {
	msg := i18n.T(lang, n.Code)
	if n.Demo {
		msg = "Demo: " + msg + " " + i18n.T(lang, "demo_suffix")
	}
	return msg
}
