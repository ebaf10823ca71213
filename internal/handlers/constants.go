package handlers

const (
	ErrInvalidFormData       = "Invalid form data"
	ErrUnauthorized          = "Unauthorized"
	ErrForbidden             = "Forbidden"
	ErrTooManyRequests       = "Too many requests, try again later"
	ErrInternalServerError   = "Internal server error"
	ErrBackendUnavailable    = "The vocabulary server is not responding"
	ErrInvalidLogin          = "Invalid username or password"
	ErrSaveToNotebookFailed  = "Could not save the word to your notebook"
	ErrDigestNotSent         = "Could not send the summary email"
	ErrEntryNotFound         = "Entry not found. It may have been removed already."
	NoticeDigestSent         = "Summary sent. Check your inbox."
	requestIDHeader          = "X-Request-ID"
	flashSaveFailed          = "save"
	flashDigestSent          = "sent"
	flashDigestFailed        = "failed"
	flashNoteInvalid         = "note"
	flashNotebookUnavailable = "backend"
	flashEntryNotFound       = "missing"
)
