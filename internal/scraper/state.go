package scraper

// State is a step of the search state machine:
// start → navigated → consented → (popup cleared) → searched → extracted | failed.
type State string

const (
	StateStart        State = "start"
	StateNavigated    State = "navigated"
	StateConsented    State = "consented"
	StatePopupCleared State = "popup_cleared"
	StateSearched     State = "searched"
	StateExtracted    State = "extracted"
	StateFailed       State = "failed"
)

// step names used in errors
const (
	stepNavigate = "navigate"
	stepSearch   = "search"
	stepExtract  = "extract"
)
