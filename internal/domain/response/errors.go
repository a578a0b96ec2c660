package response

import "errors"

var (
	ErrResponseNotFound     = errors.New("response not found")
	ErrItemNotFound         = errors.New("response item not found")
	ErrOnlyDraftSubmittable = errors.New("only draft responses can be submitted")
	ErrNotApprovable        = errors.New("only draft or pending approval responses can be approved")
	ErrResponseClosed       = errors.New("response is in a terminal status")
	ErrInvalidRecipient     = errors.New("invalid recipient email")
	ErrSendFailed           = errors.New("failed to send response email")
)
