package domain

import "strings"

// Reserved UI control payloads. They are intercepted by the router before any
// scene sees the callback.
const (
	CallbackCancel                   = "ui:cancel"
	CallbackHide                     = "ui:hide"
	CallbackDisableNotifications     = "ui:disable_notifications"
	CallbackBack                     = "ui:back"
	CallbackDisableInfoNotifications = "ui:disable_info_notifications"
)

// ReservedNamespace is the callback prefix owned by the UI controls above.
const ReservedNamespace = "ui"

// MaxCallbackDataLen is the hard limit on callback payload size, in bytes.
const MaxCallbackDataLen = 64

// IsReservedCallback reports whether data is one of the UI control payloads.
func IsReservedCallback(data string) bool {
	switch data {
	case CallbackCancel, CallbackHide, CallbackDisableNotifications,
		CallbackBack, CallbackDisableInfoNotifications:
		return true
	}
	return false
}

// ValidCallbackData reports whether data is non-empty, at most
// MaxCallbackDataLen bytes and pure ASCII.
func ValidCallbackData(data string) bool {
	if data == "" || len(data) > MaxCallbackDataLen {
		return false
	}
	for i := 0; i < len(data); i++ {
		if data[i] >= 0x80 {
			return false
		}
	}
	return true
}

// CallbackData builds a payload following the "<prefix>:<payload>" convention.
// An empty payload yields the bare prefix.
func CallbackData(prefix, payload string) string {
	if payload == "" {
		return prefix
	}
	return prefix + ":" + payload
}

// SplitCallbackData attributes data to prefix. It only succeeds when the rest
// after the prefix is empty or starts with ':', so prefix "a" never claims "ab:1".
// The returned payload has the separator stripped.
func SplitCallbackData(prefix, data string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(data, prefix) {
		return "", false
	}
	rest := data[len(prefix):]
	if rest == "" {
		return "", true
	}
	if rest[0] != ':' {
		return "", false
	}
	return rest[1:], true
}
