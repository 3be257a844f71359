package transport

type Protocol string

const (
	TCP  Protocol = "tcp"
	Pipe Protocol = "pipe"
)

// Addr has the same method set as [net.Addr],
// so addresses of real sockets can be used as is.
type Addr interface {
	Network() string
	String() string
}
