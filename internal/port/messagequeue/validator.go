package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingID = errors.New("missing id")

// schemas maps each known subject to a decoder that rejects payloads of
// the wrong shape.
var schemas = map[string]func([]byte) error{
	SubjectStoryMapGenerated: checkStoryMap,
	SubjectStoryMapRefined:   checkStoryMap,
	SubjectStoryMapSaved:     checkStoryMap,
	SubjectStoryMapDeleted:   checkStoryMap,
	SubjectStoryMapImported: func(data []byte) error {
		var p ImportPayload
		return json.Unmarshal(data, &p)
	},
}

func checkStoryMap(data []byte) error {
	var p StoryMapPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingID
	}
	return nil
}

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need to be
// valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	check, ok := schemas[subject]
	if !ok {
		return nil
	}
	if err := check(data); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
