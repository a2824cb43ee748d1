package models

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// validate checks decoded sub-documents against their schema tags. A
// document that fails validation is replaced by defaults, never surfaced as
// an error: stored settings must not be able to break reads.
var validate = validator.New()

// DecodeStringList decodes a JSON array of strings stored as text. Malformed
// or oversized data degrades to an empty list with a logged warning.
func DecodeStringList(raw, field string) []string {
	if raw == "" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Warn().Err(err).Str("field", field).Msg("Malformed JSON list, using empty default")
		return []string{}
	}
	if err := validate.Var(list, "max=20,dive,max=64"); err != nil {
		log.Warn().Err(err).Str("field", field).Msg("JSON list failed validation, using empty default")
		return []string{}
	}
	return list
}

// EncodeStringList encodes a list field for storage. A nil list is stored as
// an empty JSON array so reads never see SQL NULL.
func EncodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}
