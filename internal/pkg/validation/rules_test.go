package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	assert.True(t, ValidUsername("ST2024001"))
	assert.True(t, ValidUsername("csc/2021/044"))
	assert.False(t, ValidUsername("ab"))
	assert.False(t, ValidUsername("bad name"))

	assert.True(t, ValidLevel("100"))
	assert.True(t, ValidLevel("500"))
	assert.False(t, ValidLevel("150"))
	assert.False(t, ValidLevel("1000"))
	assert.False(t, ValidLevel("one"))

	assert.True(t, ValidDepartment("CSC"))
	assert.False(t, ValidDepartment("csc"))
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type form struct {
		Department string `validate:"department"`
		Level      string `validate:"level"`
		Doc        string `validate:"doctype"`
	}
	assert.NoError(t, v.Struct(form{Department: "NUR", Level: "200", Doc: "jamb-admission"}))

	err := v.Struct(form{Department: "XYZ", Level: "200", Doc: "passport"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}
