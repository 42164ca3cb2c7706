package service

import (
	"encoding/json"

	"thing-journal-server/internal/semantic"
)

func marshalExtraction(extraction *semantic.Extraction) (json.RawMessage, error) {
	data, err := json.Marshal(extraction)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
