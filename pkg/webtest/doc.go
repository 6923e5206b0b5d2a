// Package webtest is an in-process HTTP client for exercising a handler
// with mock identities attached.
//
//	client := webtest.New(handler)
//	res, err := client.Get("/whoami").
//		MutateWith(mockauth.JWT(token.Scope("read", "admin"))).
//		Exchange()
//
// Requests are served synchronously through an httptest recorder. Each
// exchange gets an X-Request-ID and an OpenTelemetry span named
// "webtest.exchange".
package webtest
