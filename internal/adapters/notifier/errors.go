package notifier

import "errors"

// Sentinel kinds for notifier errors.
var (
	ErrSendFailed = errors.New("notification send failed")
)
