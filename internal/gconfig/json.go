package gconfig

import "encoding/json"

func jsonUnmarshalStrict(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
