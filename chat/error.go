package chat

import (
	"net/http"

	"github.com/adi-uchiha/jems/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("CHAT")

// Error codes
var (
	CodeInvalidPayload        = ErrRegistry.Register("INVALID_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Invalid chat payload")
	CodeEmptyMessages         = ErrRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "Message list is empty")
	CodeLastMessageNotUser    = ErrRegistry.Register("LAST_MESSAGE_NOT_USER", errx.TypeValidation, http.StatusBadRequest, "Last message must come from the user")
	CodeConversationNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Conversation not found")
	CodeConversationForbidden = ErrRegistry.Register("FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Conversation belongs to another user")
	CodeGenerationFailed      = ErrRegistry.Register("GENERATION_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Text generation failed")
	CodePersistenceFailed     = ErrRegistry.Register("PERSISTENCE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to persist message")
)

// Helper functions
func ErrInvalidPayload() *errx.Error {
	return ErrRegistry.New(CodeInvalidPayload)
}

func ErrEmptyMessages() *errx.Error {
	return ErrRegistry.New(CodeEmptyMessages)
}

func ErrLastMessageNotUser() *errx.Error {
	return ErrRegistry.New(CodeLastMessageNotUser)
}

func ErrConversationNotFound() *errx.Error {
	return ErrRegistry.New(CodeConversationNotFound)
}

func ErrConversationForbidden() *errx.Error {
	return ErrRegistry.New(CodeConversationForbidden)
}

func ErrGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeGenerationFailed)
}

func ErrPersistenceFailed() *errx.Error {
	return ErrRegistry.New(CodePersistenceFailed)
}
