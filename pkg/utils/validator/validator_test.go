package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tripRequest struct {
	Query     string   `json:"query" validate:"required,nonblank,max=20"`
	Interests []string `json:"interests" validate:"max=2,dive,nonblank"`
}

func TestValidateWithLang(t *testing.T) {
	v := New()

	assert.Nil(t, v.ValidateWithLang(tripRequest{Query: "東京五天"}, LangEN))

	tests := []struct {
		name  string
		req   tripRequest
		lang  string
		field string
		tag   string
		want  string
	}{
		{"missing query", tripRequest{}, LangEN, "query", "required", "query is a required field"},
		{"blank query", tripRequest{Query: "   "}, LangEN, "query", TagNonBlank, "query must not be blank"},
		{"blank query zh", tripRequest{Query: " "}, "zh-TW,zh;q=0.9", "query", TagNonBlank, "query不能为空白"},
		{"blank interest", tripRequest{Query: "x", Interests: []string{"美食", ""}}, LangEN, "interests[1]", TagNonBlank, "interests[1] must not be blank"},
		{"too many interests", tripRequest{Query: "x", Interests: []string{"a", "b", "c"}}, LangEN, "interests", "max", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateWithLang(tt.req, tt.lang)
			require.True(t, errs.HasErrors())
			assert.Equal(t, tt.field, errs.Errors[0].Field)
			assert.Equal(t, tt.tag, errs.Errors[0].Tag)
			if tt.want != "" {
				assert.Equal(t, tt.want, errs.First())
			}
			assert.Contains(t, errs.Error(), "validation failed: ")
		})
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	errs := StructWithLang(tripRequest{}, "fr-FR")
	require.True(t, errs.HasErrors())
	assert.Equal(t, "query is a required field", errs.First())
}

func TestValidationErrorsHelpers(t *testing.T) {
	var empty *ValidationErrors
	assert.False(t, empty.HasErrors())
	assert.Empty(t, empty.Error())
	assert.Empty(t, empty.First())
	assert.Nil(t, empty.Messages())

	errs := NewValidationError("query", "required", "query is required")
	errs.Errors = append(errs.Errors, FieldError{Field: "query", Tag: "max", Message: "query is too long"})
	assert.Equal(t, []string{"query is required", "query is too long"}, errs.Messages())
	assert.Equal(t, map[string][]string{"query": {"query is required", "query is too long"}}, errs.ByField())
	assert.Equal(t, "validation failed: query is required; query is too long", errs.Error())
}
