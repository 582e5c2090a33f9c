package enums

// PaymentResult is the authority's per-attempt decision. It is transient and
// never persisted.
type PaymentResult string

const (
	PaymentResultSuccess PaymentResult = "SUCCESS"
	PaymentResultFailed  PaymentResult = "FAILED"
	// PaymentResultPending is the synchronous caller-facing signal that an
	// attempt failed but asynchronous retries may still land it.
	PaymentResultPending PaymentResult = "PENDING"
)

// String implements fmt.Stringer.
func (r PaymentResult) String() string {
	return string(r)
}
