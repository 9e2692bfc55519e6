package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "нижний регистр", email: "John@Example.COM", want: "john@example.com"},
		{name: "уже нормализован", email: "john@example.com", want: "john@example.com"},
		{name: "пробелы не удаляются", email: " John@example.com ", want: " john@example.com "},
		{name: "пустой", email: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.email))
		})
	}
}

func TestMember_HasRegistrationKey(t *testing.T) {
	key, empty := "abc", ""
	assert.True(t, (&Member{RegistrationKey: &key}).HasRegistrationKey())
	assert.False(t, (&Member{RegistrationKey: &empty}).HasRegistrationKey())
	assert.False(t, (&Member{}).HasRegistrationKey())
}
