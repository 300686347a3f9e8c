package schemas

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleNumber decodes a JSON number, or a numeric string with an optional
// "%" suffix. Models intermittently quote numbers ("85%", "12"); accepting
// those here keeps the schema boundary strict without failing whole payloads
// on a formatting quirk.
type FlexibleNumber float64

func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*n = FlexibleNumber(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value %s is neither number nor string", data)
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("string value %q is not numeric", s)
	}
	*n = FlexibleNumber(parsed)
	return nil
}

// StringOrList decodes a JSON string, or an array of strings joined with
// ", ". Some prompts get back a single string where a list was asked for
// and vice versa.
type StringOrList string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("value %s is neither string nor string array", data)
	}
	*s = StringOrList(strings.Join(list, ", "))
	return nil
}
