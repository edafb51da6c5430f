package mailer

import "context"

// Transport attempts a single delivery of a composed message.
// Implementations must honour ctx deadlines so a hung connection
// cannot stall the caller beyond one attempt timeout.
type Transport interface {
	Send(ctx context.Context, auth Credentials, email *Email) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, auth Credentials, email *Email) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, auth Credentials, email *Email) error {
	return f(ctx, auth, email)
}
