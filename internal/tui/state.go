package tui

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

var stateName = map[State]string{
	StateIdle:    "idle",
	StateLoading: "loading",
	StateLoaded:  "loaded",
	StateFailed:  "failed",
}

func (s State) String() string {
	return stateName[s]
}

// ViewState is what the panel currently shows. Message is only set when
// loaded, Err only when failed.
type ViewState struct {
	State   State
	Message string
	Err     string
}

func Loading() ViewState {
	return ViewState{State: StateLoading}
}

func Loaded(message string) ViewState {
	return ViewState{State: StateLoaded, Message: message}
}

func Failed(err string) ViewState {
	return ViewState{State: StateFailed, Err: err}
}
