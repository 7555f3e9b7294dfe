package protocol

// Error codes carried by error{code,message}.
const (
	CodeBadRequest       = "bad_request"
	CodeBadVersion       = "bad_protocol_version"
	CodeRateLimited      = "rate_limited"
	CodeNotSpawned       = "not_spawned"
	CodeAlreadySpawned   = "already_spawned"
	CodeInsufficient     = "insufficient_items"
	CodeInventoryFull    = "inventory_full"
	CodeUnknownRecipe    = "unknown_recipe"
	CodeUnknownTarget    = "unknown_target"
	CodeOutOfRange       = "out_of_range"
	CodeQuestUnavailable = "quest_unavailable"
	CodeInvalidName      = "invalid_name"
	CodeMaxLevel         = "max_level"
	CodeInternal         = "internal"
)

// NewError builds an error message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
