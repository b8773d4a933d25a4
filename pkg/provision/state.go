package provision

//go:generate go run github.com/dmarkham/enumer -type State -trimprefix State -output state.gen.go

// State is a step of a provisioning request.
type State int

const (
	StateCheckingExisting State = iota
	StateReusingExisting
	StateAllocating
	StateGeneratingKeys
	StatePersisting
	StateSynchronizing
	StateRendering
	StateDone
	StateFailed
)
