// Package model contains the value types exchanged with an ntfy server:
// stream messages, publish requests and acknowledgements, subscription
// filters, and the rows persisted by the storage adapters.
package model

// tablePrefix is prepended to every table name used by the storage adapters.
const tablePrefix = "ntfy_"
