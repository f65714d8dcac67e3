package messaging

import "strings"

// Subjects follow {domain}.{resource}.{action}.{namespace-token}.
const (
	SubjectEventsReceived = "webhooks.events.received"
	SubjectEventsDeleted  = "webhooks.events.deleted"
)

// Wildcard subjects matching events of every namespace.
const (
	AllEventsReceived = SubjectEventsReceived + ".*"
	AllEventsDeleted  = SubjectEventsDeleted + ".*"
)

// EventsReceivedSubject returns the subject for events stored under namespace.
func EventsReceivedSubject(namespace string) string {
	return SubjectEventsReceived + "." + NamespaceToken(namespace)
}

// EventsDeletedSubject returns the subject for deletions under namespace.
func EventsDeletedSubject(namespace string) string {
	return SubjectEventsDeleted + "." + NamespaceToken(namespace)
}

// NamespaceToken maps a free-form namespace onto a single subject token.
// Token separators, wildcards and whitespace become "_"; an empty namespace
// becomes "_" as well.
func NamespaceToken(namespace string) string {
	if namespace == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, namespace)
}
