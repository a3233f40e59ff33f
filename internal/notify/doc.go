// Package notify records user-facing notifications and delivers
// password-reset mail over SMTP.
//
// Every notification is persisted to the notifications table so clients
// can replay what they missed. Mail delivery is optional; with SMTP
// disabled the sender degrades to a log line.
package notify
