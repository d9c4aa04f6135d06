package billing

import "time"

// SetNow freezes the billing clock until the returned func is called.
func SetNow(now time.Time) (restore func()) {
	prev := nowFunc
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = prev }
}

func SetInvoiceNumberFunc(fn func(time.Time) string) (restore func()) {
	prev := invoiceNumberFunc
	invoiceNumberFunc = fn
	return func() { invoiceNumberFunc = prev }
}
