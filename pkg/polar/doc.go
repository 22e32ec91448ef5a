// Package polar implements billing.Provider on top of the Polar REST API.
//
// Only the endpoints the billing core needs are covered: customers, customer
// state, orders, subscriptions, checkouts and customer sessions.
//
//	client, err := polar.NewClient(cfg)
//	if err != nil {
//		return err
//	}
//	svc := billing.NewService(client, store)
package polar
