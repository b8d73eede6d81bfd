package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
)

var (
	ErrInvalidPayload = errors.New("payload is not an object")
	ErrMissingMessage = errors.New("message must be a string")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message too long")
)

// maxTokenLength bounds color and tool tags
const maxTokenLength = 32

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// SanitizeText strips tags and control characters, then escapes whatever
// markup-significant characters remain.
func SanitizeText(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = controlCharRegex.ReplaceAllString(s, "")
	return html.EscapeString(strings.TrimSpace(s))
}

// decodeObject decodes raw into a JSON object, keeping numbers as json.Number
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, ErrInvalidPayload
	}
	return fields, nil
}

// ParseDrawEvent coerces an untrusted draw payload into a DrawEvent.
// Only a non-object payload is rejected; every field falls back to a safe value.
func ParseDrawEvent(raw json.RawMessage) (domain.DrawEvent, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return domain.DrawEvent{}, err
	}

	x, _ := toNumber(fields["x"])
	y, _ := toNumber(fields["y"])

	size, _ := toNumber(fields["size"])
	if size == 0 {
		size = domain.DefaultStrokeSize
	}
	size = math.Max(domain.MinStrokeSize, math.Min(size, domain.MaxStrokeSize))

	color := sanitizeToken(fields["color"])
	if color == "" {
		color = domain.DefaultStrokeColor
	}

	tag := sanitizeToken(fields["type"])
	if tag == "" {
		tag = sanitizeToken(fields["tool"])
	}
	if tag == "" {
		tag = domain.DefaultDrawType
	}

	start, _ := fields["start"].(bool)

	return domain.DrawEvent{
		X:     x,
		Y:     y,
		Color: color,
		Size:  size,
		Type:  tag,
		Start: start,
	}, nil
}

// ParseChatMessage extracts and sanitizes the text of a chat payload.
// Length is checked on the trimmed input before sanitization.
func ParseChatMessage(raw json.RawMessage, maxLen int) (string, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return "", err
	}

	msg, ok := fields["message"].(string)
	if !ok {
		return "", ErrMissingMessage
	}

	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) > maxLen {
		return "", ErrMessageTooLong
	}

	clean := SanitizeText(msg)
	if clean == "" {
		return "", ErrEmptyMessage
	}
	return clean, nil
}

// toNumber converts a decoded JSON value to a finite float64
func toNumber(v any) (float64, bool) {
	var f float64
	var err error

	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// sanitizeToken returns a cleaned short string, or "" for non-strings
func sanitizeToken(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = SanitizeText(s)
	if utf8.RuneCountInString(s) > maxTokenLength {
		s = string([]rune(s)[:maxTokenLength])
	}
	return s
}
