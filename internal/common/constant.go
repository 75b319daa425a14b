// Package common contains shared constants and sentinel errors used across
// gophsecrets components.
package common

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "session"

// User-facing flash messages rendered by the web layer.
const (
	MsgAccountExists        = "Username already exists! Proceed to login!"
	MsgCredentialsNotFound  = "Username and password combination not found!"
	MsgAllFieldsRequired    = "All fields are required!"
	MsgDownloadNotAvailable = "The requested file is not available."
)
