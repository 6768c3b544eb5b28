package format

import "encoding/json"

// JSON encodes and decodes JSON documents. Decoded numbers surface as
// floats, as usual for dynamic JSON decoding.
type JSON struct{}

func (JSON) Name() string {
	return "json"
}

func (JSON) Mimetype() string {
	return "application/json"
}

func (JSON) Extensions() []string {
	return []string{".json"}
}

func (JSON) Serialize(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (JSON) Unserialize(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}
