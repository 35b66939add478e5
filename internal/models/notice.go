package models

import "time"

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, user-visible message (rendered as a toast by clients)
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Source  string      `json:"source"`
	Message string      `json:"message"`
	Time    time.Time   `json:"time"`
}

// NewNotice creates a notice stamped with the current time
func NewNotice(level NoticeLevel, source, message string) Notice {
	return Notice{
		Level:   level,
		Source:  source,
		Message: message,
		Time:    time.Now().UTC(),
	}
}
