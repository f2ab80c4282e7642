package templates

import (
	"bytes"
	"encoding/json"
	"html/template"
	"time"
)

// DateTimeLayout is the display format used by the datetime template function.
const DateTimeLayout = "2006-01-02 15:04:05"

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateTimeLayout)
		},
	}
}

func marshal(value any) (string, error) {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		return "", err
	}

	return buf.String(), nil
}
