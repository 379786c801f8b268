package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// Validation failure reasons, used as metric labels.
const (
	reasonMissing   = "missing"
	reasonWrongType = "wrong_type"
	reasonNull      = "null"
	reasonMalformed = "malformed"
	reasonNotObject = "not_object"
	reasonTooLarge  = "too_large"
)

const textField = "text"

// validationDetail is one entry of a 422 body. The shape matches the one
// FastAPI clients already parse.
type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type validationResponse struct {
	Detail []validationDetail `json:"detail"`
}

// validationError describes why a request body was rejected.
type validationError struct {
	reason string
	detail validationDetail
}

func (e *validationError) Error() string {
	return e.detail.Msg
}

func (e *validationError) response() validationResponse {
	return validationResponse{Detail: []validationDetail{e.detail}}
}

func bodyError(reason, msg, typ string) *validationError {
	return &validationError{reason: reason, detail: validationDetail{Loc: []string{"body"}, Msg: msg, Type: typ}}
}

func textError(reason, msg, typ string) *validationError {
	return &validationError{reason: reason, detail: validationDetail{Loc: []string{"body", textField}, Msg: msg, Type: typ}}
}

// decodePredictRequest extracts the text member of a POST /predict body.
// Unknown members are ignored. The returned text is exactly what the JSON
// string decodes to; it is not trimmed or normalised.
func decodePredictRequest(body []byte) (string, *validationError) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", bodyError(reasonMissing, "field required", "value_error.missing")
	}
	if !utf8.Valid(body) {
		return "", bodyError(reasonMalformed, "body is not valid UTF-8", "value_error.jsondecode")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", bodyError(reasonMalformed, "Expecting value: "+err.Error(), "value_error.jsondecode")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", bodyError(reasonMalformed, "Extra data after JSON value", "value_error.jsondecode")
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return "", bodyError(reasonNotObject, "value is not a valid dict", "type_error.dict")
	}

	raw, present := obj[textField]
	switch text := raw.(type) {
	case string:
		return text, nil
	case nil:
		if !present {
			return "", textError(reasonMissing, "field required", "value_error.missing")
		}
		return "", textError(reasonNull, "none is not an allowed value", "type_error.none.not_allowed")
	default:
		return "", textError(reasonWrongType, "str type expected", "type_error.str")
	}
}
