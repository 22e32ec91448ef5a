package templates

import "github.com/a-h/templ"

// WelcomeData fills the premium welcome message.
type WelcomeData struct {
	AppName     string
	SiteURL     string
	Name        string
	ProductName string
	IsLifetime  bool
}

// WelcomeSubject is the subject line of the welcome message.
func WelcomeSubject(d WelcomeData) string {
	if d.IsLifetime {
		return "Your lifetime access to " + d.AppName + " is active"
	}
	return "Welcome to " + d.AppName + " Premium"
}

// Welcome confirms a purchase that granted premium access.
func Welcome(d WelcomeData) templ.Component {
	return layout(WelcomeSubject(d), d.AppName, func(w *writer) {
		w.raw(`<p>Hi `)
		w.text(d.Name)
		w.raw(`,</p><p>Thank you for purchasing `)
		if d.ProductName != "" {
			w.raw(`<strong>`)
			w.text(d.ProductName)
			w.raw(`</strong>`)
		} else {
			w.text(d.AppName + " Premium")
		}
		w.raw(`. `)
		if d.IsLifetime {
			w.text("Your access never expires, and there is nothing more to pay.")
		} else {
			w.text("Your subscription is active and renews automatically.")
		}
		w.raw(`</p>`)
		if d.SiteURL != "" {
			w.raw(`<p><a href="`)
			w.text(d.SiteURL)
			w.raw(`">`)
			w.text("Open " + d.AppName)
			w.raw(`</a></p>`)
		}
	})
}

// CancellationData fills the cancellation confirmation.
type CancellationData struct {
	AppName string
	SiteURL string
	Name    string
}

// CancellationSubject is the subject line of the cancellation confirmation.
func CancellationSubject(d CancellationData) string {
	return "Your " + d.AppName + " subscription was cancelled"
}

// Cancellation confirms that a subscription was cancelled.
func Cancellation(d CancellationData) templ.Component {
	return layout(CancellationSubject(d), d.AppName, func(w *writer) {
		w.raw(`<p>Hi `)
		w.text(d.Name)
		w.raw(`,</p><p>`)
		w.text("We have cancelled your subscription. You keep premium access until the end of the current billing period.")
		w.raw(`</p>`)
		if d.SiteURL != "" {
			w.raw(`<p>`)
			w.text("Changed your mind? You can resubscribe any time at ")
			w.raw(`<a href="`)
			w.text(d.SiteURL)
			w.raw(`">`)
			w.text(d.SiteURL)
			w.raw(`</a>.</p>`)
		}
	})
}
