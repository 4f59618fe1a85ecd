package constants

// Standard Response Field Keys
const (
	ResponseFieldCode    = "code"
	ResponseFieldMessage = "message"
	ResponseFieldDetails = "details"
)

func BuildErrorResponse(code, message string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldCode:    code,
		ResponseFieldMessage: message,
	}

	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}
