package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
		want  []string
	}{
		{"native list", []string{"go", "web"}, []string{"go", "web"}},
		{"native list with padding", []string{" go ", "", " web"}, []string{"go", "web"}},
		{"interface list", []interface{}{"go", "web", 42}, []string{"go", "web"}},
		{"json string", `["go"," web ",""]`, []string{"go", "web"}},
		{"comma string", "go, web,  cloud ", []string{"go", "web", "cloud"}},
		{"single value string", "go", []string{"go"}},
		{"malformed json falls back to csv", `["go",`, []string{`["go"`}},
		{"empty string", "", []string{}},
		{"whitespace string", "   ", []string{}},
		{"nil", nil, []string{}},
		{"unsupported type", 42, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTags(tc.input))
		})
	}
}
