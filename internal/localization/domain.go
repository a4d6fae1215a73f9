package localization

import (
	"golang.org/x/text/language"
)

// Language is a storefront language that localized resources are kept for.
type Language struct {
	ID        int64
	Name      string
	Culture   language.Tag
	Published bool
}

// Resource is a localized string keyed by resource name within a language.
type Resource struct {
	LanguageID int64
	Name       string
	Value      string
}
