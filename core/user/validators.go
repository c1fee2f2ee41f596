package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ushauri/core"
)

var (
	roleTag  = "role"
	roleText = "role must be either student or mentor"

	mentorFieldsTag  = "mentorfields"
	mentorFieldsText = "this field is required for mentors"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.Validate.RegisterStructValidation(userStructValidation, UpdateUser{})
	core.RegisterCustomTranslation(mentorFieldsTag, mentorFieldsText)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// roleValidation checks that the provided role is a known one.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Role == RoleMentor {
			validateMentorFields(usr, sl)
		}
		validatePassword(usr.Password, usr.Name, usr.Email, sl, "password")
	case UpdateUser:
		if usr.NewPassword != "" {
			validatePassword(usr.NewPassword, usr.Name, usr.Email, sl, "newPassword")
		}
	}
}

// validateMentorFields checks that all mentor-only required fields are provided.
func validateMentorFields(nu NewUser, sl validator.StructLevel) {
	if len(nu.Expertise) == 0 {
		sl.ReportError(nu.Expertise, "expertise", "Expertise", mentorFieldsTag, "")
	}
	if len(nu.Qualifications) == 0 {
		sl.ReportError(nu.Qualifications, "qualifications", "Qualifications", mentorFieldsTag, "")
	}
	if nu.Institution == "" {
		sl.ReportError(nu.Institution, "institution", "Institution", mentorFieldsTag, "")
	}
	if nu.Description == "" {
		sl.ReportError(nu.Description, "description", "Description", mentorFieldsTag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel, fldName string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, fldName, "Password", tag, "")
	}

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}
}
