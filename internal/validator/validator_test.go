package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Mode    string `toml:"mode" validate:"oneof=mock live"`
	Retries int    `toml:"max_attempts" validate:"min=1"`
	Nested  struct {
		URL string `json:"base_url" validate:"omitempty,url"`
	} `toml:"service"`
}

func TestStruct_Valid(t *testing.T) {
	s := sample{Mode: "mock", Retries: 1}
	assert.NoError(t, Struct(s))
}

func TestTranslateErrors_UsesTagNames(t *testing.T) {
	s := sample{Mode: "remote", Retries: 0}
	s.Nested.URL = "not a url"

	err := Struct(s)
	require.Error(t, err)

	fields := TranslateErrors(err)
	require.Len(t, fields, 3)
	assert.Contains(t, fields["sample.mode"], "mode must be one of [mock live]")
	assert.Contains(t, fields["sample.max_attempts"], "max_attempts must be 1 or greater")
	assert.Contains(t, fields["sample.service.base_url"], "base_url must be a valid URL")
}

func TestTranslateErrors_NonValidationError(t *testing.T) {
	fields := TranslateErrors(errors.New("boom"))
	assert.Equal(t, map[string]string{"detail": "boom"}, fields)
}

func TestError_Flattens(t *testing.T) {
	assert.NoError(t, Error(nil))

	err := Error(Struct(sample{Mode: "mock"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration:")
	assert.Contains(t, err.Error(), "max_attempts")
}
