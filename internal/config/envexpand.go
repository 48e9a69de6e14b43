package config

import (
	"bytes"
	"os"
	"text/template"
)

// ExpandEnv expands {{.VAR}} placeholders in raw YAML bytes against the
// process environment, mirroring the teacher's envexpand.go. On any
// template parse/execution error the original bytes are returned unchanged
// so the YAML parser can surface a clearer error downstream.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	env := envMap()
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return data
	}
	return buf.Bytes()
}

func envMap() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}
