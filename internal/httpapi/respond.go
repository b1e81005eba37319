package httpapi

import (
	"encoding/json"
	"net/http"
)

// maxRequestBody caps JSON request bodies.  End-event requests carry a
// base64 template image, so the cap must fit a multi-megapixel PNG with
// base64 overhead.
const maxRequestBody = 8 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func writePNG(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// decodeJSON decodes the request body into v with the body cap applied and
// unknown fields rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
