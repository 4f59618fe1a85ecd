package validation

import (
	"fmt"
	"strings"

	"github.com/agrimart/storefront/pkg/errmsg"
)

var customMessages = map[errmsg.Language]map[string]map[string]string{
	errmsg.English: {
		"Page": {
			"min": "page must be zero or greater",
		},
		"Size": {
			"min": "size must be at least 1",
			"max": "size must not exceed 100",
		},
		"Lang": {
			"oneof": "lang must be en or ne",
		},
		"Search": {
			"max": "search is too long",
		},
	},
	errmsg.Nepali: {
		"Page": {
			"min": "पृष्ठ शून्य वा बढी हुनुपर्छ",
		},
		"Size": {
			"min": "आकार कम्तीमा १ हुनुपर्छ",
			"max": "आकार १०० भन्दा बढी हुनु हुँदैन",
		},
		"Lang": {
			"oneof": "भाषा en वा ne हुनुपर्छ",
		},
		"Search": {
			"max": "खोज शब्द धेरै लामो छ",
		},
	},
}

// CustomMessage returns the field-specific message for tag, if one exists.
func CustomMessage(lang errmsg.Language, field, tag string) (string, bool) {
	msg, ok := customMessages[lang][field][tag]
	return msg, ok
}

// DefaultMessage is the generic message for a failed validation tag.
func DefaultMessage(lang errmsg.Language, field, tag, param string) string {
	field = strings.ToLower(field)

	if lang == errmsg.Nepali {
		switch tag {
		case "required":
			return fmt.Sprintf("%s आवश्यक छ", field)
		case "min", "gte":
			return fmt.Sprintf("%s कम्तीमा %s हुनुपर्छ", field, param)
		case "max", "lte":
			return fmt.Sprintf("%s %s भन्दा बढी हुनु हुँदैन", field, param)
		case "oneof":
			return fmt.Sprintf("%s यी मध्ये एक हुनुपर्छ: %s", field, param)
		default:
			return fmt.Sprintf("%s मान्य छैन", field)
		}
	}

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}

// Message picks the custom message when one exists.
func Message(lang errmsg.Language, field, tag, param string) string {
	if msg, ok := CustomMessage(lang, field, tag); ok {
		return msg
	}
	return DefaultMessage(lang, field, tag, param)
}
