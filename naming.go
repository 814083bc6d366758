package props

import (
	"strings"

	"github.com/stoewer/go-strcase"
)

// KeyMapper derives a property key from an accessor name when no explicit key
// is declared.
type KeyMapper func(name string) string

// LowerCamelKeys maps "WebServer" to "webServer". It is the default mapper and
// leaves already lower camel names ("port") unchanged.
func LowerCamelKeys(name string) string {
	return strcase.LowerCamelCase(name)
}

// DottedKeys maps "UserHome" to "user.home".
func DottedKeys(name string) string {
	return strings.ReplaceAll(strcase.SnakeCase(name), "_", ".")
}

// KebabKeys maps "UserHome" to "user-home".
func KebabKeys(name string) string {
	return strcase.KebabCase(name)
}

// EnvKeys maps "UserHome" to "USER_HOME".
func EnvKeys(name string) string {
	return strcase.UpperSnakeCase(name)
}

// VerbatimKeys uses the accessor name as the key.
func VerbatimKeys(name string) string {
	return name
}
