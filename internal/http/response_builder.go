package http

import (
	"encoding/json"
	"net/http"
)

// User-facing messages.
const (
	msgValidation        = "Por favor, completa todos los campos correctamente."
	msgInsufficientStock = "Stock insuficiente para realizar esta venta."
	msgItemNotFound      = "Producto no encontrado."
	msgNotFound          = "Registro no encontrado."
	msgInternal          = "Error interno del servidor."
	msgRateLimited       = "Demasiadas solicitudes. Por favor, inténtalo de nuevo más tarde."
)

// JSONResponse provides a fluent API for building JSON responses.
type JSONResponse struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponse {
	return &JSONResponse{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

// Write sends the built response. A nil body writes only the status.
func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

// created wraps a new record with the advisory topic worth reading next.
type created struct {
	Data           any    `json:"data"`
	SuggestedTopic string `json:"suggestedTopic,omitempty"`
}

func OK(v any) *JSONResponse {
	return NewJSONResponse().Body(v)
}

func Created(v any, topic string) *JSONResponse {
	return NewJSONResponse().Status(http.StatusCreated).Body(created{Data: v, SuggestedTopic: topic})
}

func NoContent() *JSONResponse {
	return NewJSONResponse().Status(http.StatusNoContent)
}

func ErrorResponse(statusCode int, message string) *JSONResponse {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponse {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *JSONResponse {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *JSONResponse {
	return ErrorResponse(http.StatusInternalServerError, message)
}
