package checkout

type State string

const (
	StateIdle              State = "idle"
	StateAddressValidated  State = "address_validated"
	StateOrderCreated      State = "order_created"
	StatePaymentAuthorized State = "payment_authorized"
	StatePaymentVerified   State = "payment_verified"
	StateCartCleared       State = "cart_cleared"
	StateAborted           State = "aborted"
)

func (s State) IsTerminal() bool {
	return s == StateCartCleared || s == StateAborted
}

type Reason string

const (
	ReasonOrderCreationFailed Reason = "order_creation_failed"
	ReasonPaymentFailed       Reason = "payment_failed"
	ReasonVerificationFailed  Reason = "verification_failed"
)
