package validation

import (
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/workflow"
)

// Validation rule patterns
var (
	// Usernames are matriculation-style identifiers: letters, digits, slash, dash, dot
	UsernamePattern = `^[A-Za-z0-9][A-Za-z0-9/._-]{2,49}$`

	PasswordMinLength = 8

	// Levels run from 100 to 900 in steps of 100
	LevelMin = 100
	LevelMax = 900
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Username *regexp.Regexp
}{
	Username: regexp.MustCompile(UsernamePattern),
}

// ValidUsername reports whether s is an acceptable login name.
func ValidUsername(s string) bool {
	return CompiledPatterns.Username.MatchString(s)
}

// ValidLevel reports whether s is a study level such as "100".
func ValidLevel(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= LevelMin && n <= LevelMax && n%100 == 0
}

// ValidDepartment reports whether code is a known department.
func ValidDepartment(code string) bool {
	return models.IsDepartment(code)
}

// Register adds the portal's custom tags to v:
//
//	username    login name pattern
//	level       study level (100..900)
//	department  known department code
//	doctype     document type of the default catalog
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"username":   ValidUsername,
		"level":      ValidLevel,
		"department": ValidDepartment,
		"doctype":    workflow.DefaultCatalog().Has,
	}
	for tag, fn := range rules {
		fn := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

// RegisterGinValidators installs the custom tags on gin's binding validator.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}
