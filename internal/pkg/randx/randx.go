/*
Package randx provides unique identifiers for client-side objects.

Identifiers are UUID v4 strings. They label hub subscriptions in logs and give transcript entries
a stable key for renderers.
*/
package randx

import "github.com/google/uuid"

// SubscriptionID generates the identifier of a hub subscription.
func SubscriptionID() string {
	return uuid.New().String()
}

// EntryID generates the identifier of a transcript entry.
func EntryID() string {
	return uuid.New().String()
}
