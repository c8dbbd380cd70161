// Package queue holds the date-scoped ticket queue domain: service dates,
// entry statuses and their transition table, ticket numbering, dispatch and
// rollback selection, queue summaries and load snapshot windows.
//
// Everything here is a pure function over an ordered slice of entries. The
// application layer loads a day's entries inside one storage transaction,
// asks this package what to change and writes the result back.
package queue
