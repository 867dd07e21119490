package tools

import "encoding/json"

// decodeArgs re-marshals a loosely-typed argument map into a typed record.
// Tool arguments arrive as map[string]interface{} (decoded from the model's
// JSON tool-call arguments); this gives each executor a concrete struct to
// work with instead of repeated type assertions.
func decodeArgs(raw map[string]interface{}, dst interface{}) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dst)
}
