package toolinvoker

import (
	"bufio"
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Decoded is the tagged outcome of decoding a tool response body. When OK is
// false, Reason says why and Payload is nil.
type Decoded struct {
	OK      bool
	Payload interface{}
	Reason  string
}

func decodeFailed(reason string) Decoded {
	return Decoded{Reason: reason}
}

// Decode extracts the payload from a tools/call response. Event-stream
// framing is tried first (the first "data:" line holding valid JSON), then
// the whole body as plain JSON.
func Decode(body []byte) Decoded {
	if env, ok := firstEventData(body); ok {
		return fromEnvelope(env)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return decodeFailed("empty response body")
	}

	var env interface{}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return decodeFailed("response is neither event-stream nor JSON: " + err.Error())
	}
	return fromEnvelope(env)
}

func firstEventData(body []byte) (interface{}, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		var v interface{}
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			return v, true
		}
	}
	return nil, false
}

// fromEnvelope pulls the payload out of a JSON-RPC response object.
func fromEnvelope(env interface{}) Decoded {
	obj, ok := env.(map[string]interface{})
	if !ok {
		return decodeFailed("JSON-RPC envelope is not an object")
	}

	if rpcErr, ok := obj["error"]; ok && rpcErr != nil {
		return Decoded{OK: true, Payload: map[string]interface{}{"error": rpcErr}}
	}

	result, ok := obj["result"]
	if !ok {
		return Decoded{OK: true, Payload: nil}
	}

	text, hasText := firstContentText(result)
	if !hasText {
		return Decoded{OK: true, Payload: result}
	}

	if isToolError(result) {
		return Decoded{OK: true, Payload: map[string]interface{}{"error": text}}
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return Decoded{OK: true, Payload: parsed}
	}
	return Decoded{OK: true, Payload: text}
}

// firstContentText returns result.content[0].text when present.
func firstContentText(result interface{}) (string, bool) {
	r, ok := result.(map[string]interface{})
	if !ok {
		return "", false
	}
	content, ok := r["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", false
	}
	first, ok := content[0].(map[string]interface{})
	if !ok {
		return "", false
	}
	text, ok := first["text"].(string)
	return text, ok
}

func isToolError(result interface{}) bool {
	r, _ := result.(map[string]interface{})
	flag, _ := r["isError"].(bool)
	return flag
}

// IsErrorOrNoData reports whether a tool payload carries nothing usable:
// nil (including typed nil pointers and maps), an object with an "error"
// key, or an object whose "success" is false. Empty but well-formed
// payloads are data.
func IsErrorOrNoData(v interface{}) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsErrorOrNoData(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return true
		}
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		keyType := rv.Type().Key()
		if rv.MapIndex(reflect.ValueOf("error").Convert(keyType)).IsValid() {
			return true
		}
		success := rv.MapIndex(reflect.ValueOf("success").Convert(keyType))
		if success.IsValid() && success.Kind() == reflect.Interface {
			success = success.Elem()
		}
		if success.IsValid() && success.Kind() == reflect.Bool && !success.Bool() {
			return true
		}
	}
	return false
}
