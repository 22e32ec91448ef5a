// Package api serves the billing surface over HTTP: entitlement status,
// checkout, customer portal, subscription cancel and change, and the
// payments provider webhooks.
//
// Every failure is answered with a JSON object {"error": "<message>"}
// carrying a public message and a matching status code.
package api
