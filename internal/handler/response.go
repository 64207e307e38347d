package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"its-redmine/internal/client"
)

// ResponseWriterImpl implements ResponseWriter interface
type ResponseWriterImpl struct{}

// NewResponseWriter creates a new response writer instance
func NewResponseWriter() *ResponseWriterImpl {
	return &ResponseWriterImpl{}
}

// WriteSuccess writes a 200 response. Strings and byte slices are sent as plain text, anything
// else is encoded as JSON.
func (r *ResponseWriterImpl) WriteSuccess(w http.ResponseWriter, payload interface{}, headers map[string]string) error {
	for key, value := range headers {
		w.Header().Set(key, value)
	}

	switch v := payload.(type) {
	case string:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, err := fmt.Fprint(w, v)
		return err
	case []byte:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(v)
		return err
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes an error response with appropriate status code
func (r *ResponseWriterImpl) WriteError(w http.ResponseWriter, message string, statusCode int) error {
	http.Error(w, message, statusCode)
	return nil
}

// StatusForError maps a facade failure to an HTTP status code
func StatusForError(err error) int {
	kind, ok := client.KindOf(err)
	if !ok {
		return http.StatusOK
	}
	switch kind {
	case client.KindValidation:
		return http.StatusBadRequest
	case client.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// writeFacadeError reports err with the status it maps to
func writeFacadeError(writer ResponseWriter, w http.ResponseWriter, err error) {
	_ = writer.WriteError(w, err.Error(), StatusForError(err))
}
