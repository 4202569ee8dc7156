package dto

// ErrorResponse cuerpo de error HTTP. Code: VALIDATION, ENCODING, SIGNING_UNAVAILABLE,
// SIGNATURE_INVALID, INVALID_BODY, INVALID_TOKEN, ...
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
