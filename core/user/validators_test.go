package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/ionode-cloud/ERP-Cell/core"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func TestChangePassword_Validate(t *testing.T) {
	validate, translator := newValidator()
	usr := User{Name: "Asha Rao", LoginID: "asha.rao@college.edu"}

	tests := []struct {
		name    string
		pwd     string
		confirm string
		wantErr string
	}{
		{name: "too short", pwd: "Ab1!", wantErr: pwdMinLenText},
		{name: "whitespace", pwd: "Abcd 123!", wantErr: pwdNoSpaceText},
		{name: "all numeric", pwd: "1234567890", wantErr: pwdNotAllNumText},
		{name: "not complex", pwd: "abcdefgh1", wantErr: pwdComplexityText},
		{name: "similar to login", pwd: "Asha.Rao1@", wantErr: pwdAttrSimText},
		{name: "mismatch", pwd: "Tr0ub4dor&3", confirm: "Tr0ub4dor&4", wantErr: "passwordConfirm must be equal to Password"},
		{name: "valid", pwd: "Tr0ub4dor&3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirm := tt.confirm
			if confirm == "" {
				confirm = tt.pwd
			}
			cp := ChangePassword{CurrentPassword: "old", Password: tt.pwd, PasswordConfirm: confirm}
			err := cp.Validate(usr, validate)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			if assert.True(t, ok, "want validation errors, got %v", err) {
				assert.Equal(t, tt.wantErr, verrs[0].Translate(translator))
			}
		})
	}
}
