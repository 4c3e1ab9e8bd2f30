package pagestate

// Mutation sources, carried on page-changed broadcasts so consumers can
// tell deliberate navigation apart from passive visibility tracking
const (
	SourceNavigation = "navigation"
	SourceVisibility = "visibility"
	SourceFileSwitch = "file-switch"
)
