// Package gmail reads unread messages from a Gmail mailbox and marks them
// read.
//
// Client talks to the Gmail API through the narrow MessageService interface,
// which NewService implements on top of google.golang.org/api/gmail/v1.
// Provider errors never escape Client: they are logged and turned into
// sentinel results (an empty id list, an empty Email, false), so a single
// bad message cannot stop a run.
package gmail
