// Package http exposes the queue service over JSON and form encoded HTTP.
//
// The router serves the following endpoints:
//   - POST /queue/start-day: opens a service day. Body: {"service_date","overwrite"}.
//     Response 201: {"service_date","started_at","reset"}.
//   - POST /queue/entries: issues a ticket. Body: {"name","phone","service_date","birthday"}.
//     Response 201: the `entryDTO` defined in queue_handler.go.
//   - POST /queue/form: the same as POST /queue/entries for form encoded kiosks.
//   - GET /queue/entries?service_date=: lists the tickets of a day in issue order.
//   - PATCH /queue/entries/{id}: corrects name, phone or birthday of a ticket
//     issued today.
//   - POST /queue/call-next, POST /queue/call-previous: move the serving pointer.
//     Body: {"service_date"} or the service_date query parameter.
//   - GET /queue/display, GET /queue/ticker, GET /queue/history: read models for
//     signage screens.
//   - GET /queue/health: store reachability.
//
// Service dates default to today in the service time zone. Errors are returned
// as {"error_code","message","errors"} with the status derived from
// application.ErrorCategory.
package http
