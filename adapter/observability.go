package adapter

// InvokeObservation captures one wrapped-tool invocation outcome.
type InvokeObservation struct {
	RequestID   string
	ServerName  string
	Tool        string
	WrappedName string
	DurationMS  int64
	Success     bool
	TimedOut    bool
	ErrorCode   string
}

// Observer receives invocation-level observability events. Implementations
// must be safe for concurrent use; the adapter may invoke tools from
// multiple goroutines.
type Observer interface {
	ObserveInvoke(observation InvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(InvokeObservation) {}
