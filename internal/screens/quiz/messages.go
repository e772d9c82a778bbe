package quiz

// loadedMsg is sent when Load or RetryLoad returns.
type loadedMsg struct {
	Err error
}

// submittedMsg is sent when Submit or RetrySubmit returns.
type submittedMsg struct {
	Err error
}
