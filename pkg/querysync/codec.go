package querysync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSerializer returns the stock serializer for T: strings pass
// through, numbers and bools format with strconv, []string joins with
// commas, and anything else falls back to JSON.
func DefaultSerializer[T any]() func(T) string {
	return func(v T) string {
		switch val := any(v).(type) {
		case string:
			return val
		case int:
			return strconv.Itoa(val)
		case int8:
			return strconv.FormatInt(int64(val), 10)
		case int16:
			return strconv.FormatInt(int64(val), 10)
		case int32:
			return strconv.FormatInt(int64(val), 10)
		case int64:
			return strconv.FormatInt(val, 10)
		case uint:
			return strconv.FormatUint(uint64(val), 10)
		case uint8:
			return strconv.FormatUint(uint64(val), 10)
		case uint16:
			return strconv.FormatUint(uint64(val), 10)
		case uint32:
			return strconv.FormatUint(uint64(val), 10)
		case uint64:
			return strconv.FormatUint(val, 10)
		case float32:
			return strconv.FormatFloat(float64(val), 'f', -1, 32)
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(val)
		case []string:
			return strings.Join(val, ",")
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Sprint(v)
			}
			return string(b)
		}
	}
}

// DefaultDeserializer returns the stock deserializer for T, the inverse
// of DefaultSerializer. Parse failures are returned as errors so the
// inbound pass can recover; they are never swallowed into zero values.
//
// An empty string deserializes []string to an empty slice, not [""], so
// a removed list parameter round-trips to "no elements".
func DefaultDeserializer[T any]() func(string) (T, error) {
	return func(s string) (T, error) {
		var zero T

		switch any(zero).(type) {
		case string:
			return any(s).(T), nil
		case int:
			i, err := strconv.Atoi(s)
			if err != nil {
				return zero, err
			}
			return any(i).(T), nil
		case int8:
			i, err := strconv.ParseInt(s, 10, 8)
			if err != nil {
				return zero, err
			}
			return any(int8(i)).(T), nil
		case int16:
			i, err := strconv.ParseInt(s, 10, 16)
			if err != nil {
				return zero, err
			}
			return any(int16(i)).(T), nil
		case int32:
			i, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return zero, err
			}
			return any(int32(i)).(T), nil
		case int64:
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return zero, err
			}
			return any(i).(T), nil
		case uint:
			i, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return zero, err
			}
			return any(uint(i)).(T), nil
		case uint8:
			i, err := strconv.ParseUint(s, 10, 8)
			if err != nil {
				return zero, err
			}
			return any(uint8(i)).(T), nil
		case uint16:
			i, err := strconv.ParseUint(s, 10, 16)
			if err != nil {
				return zero, err
			}
			return any(uint16(i)).(T), nil
		case uint32:
			i, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return zero, err
			}
			return any(uint32(i)).(T), nil
		case uint64:
			i, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return zero, err
			}
			return any(i).(T), nil
		case float32:
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return zero, err
			}
			return any(float32(f)).(T), nil
		case float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return zero, err
			}
			return any(f).(T), nil
		case bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return zero, err
			}
			return any(b).(T), nil
		case []string:
			if s == "" {
				return any([]string{}).(T), nil
			}
			return any(strings.Split(s, ",")).(T), nil
		default:
			var val T
			if err := json.Unmarshal([]byte(s), &val); err != nil {
				return zero, err
			}
			return val, nil
		}
	}
}
