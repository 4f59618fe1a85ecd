package errmsg

import "net/http"

// Message keys.
const (
	KeyNetwork      = "network"
	KeyBadRequest   = "bad_request"
	KeyUnauthorized = "unauthorized"
	KeyForbidden    = "forbidden"
	KeyNotFound     = "not_found"
	KeyServerError  = "server_error"
	KeyGeneric      = "generic"

	// Local gateway conditions, never chosen by Resolve.
	KeyTooManyRequests = "too_many_requests"
)

var messages = map[Language]map[string]string{
	English: {
		KeyNetwork:      "Unable to reach the server. Please check your internet connection.",
		KeyBadRequest:   "Please check the information you entered.",
		KeyUnauthorized: "Your session has expired. Please log in again.",
		KeyForbidden:    "You do not have permission to do this.",
		KeyNotFound:     "The requested item was not found.",
		KeyServerError:  "The service is temporarily unavailable. Please try again later.",
		KeyGeneric:      "Something went wrong. Please try again.",

		KeyTooManyRequests: "Too many requests. Please wait a moment and try again.",
	},
	Nepali: {
		KeyNetwork:      "सर्भरसँग जडान हुन सकेन। कृपया आफ्नो इन्टरनेट जडान जाँच गर्नुहोस्।",
		KeyBadRequest:   "कृपया तपाईंले प्रविष्ट गर्नुभएको जानकारी जाँच गर्नुहोस्।",
		KeyUnauthorized: "तपाईंको सत्र समाप्त भयो। कृपया फेरि लगइन गर्नुहोस्।",
		KeyForbidden:    "तपाईंलाई यो कार्य गर्ने अनुमति छैन।",
		KeyNotFound:     "खोजिएको वस्तु फेला परेन।",
		KeyServerError:  "सेवा अस्थायी रूपमा उपलब्ध छैन। कृपया पछि फेरि प्रयास गर्नुहोस्।",
		KeyGeneric:      "केही गडबड भयो। कृपया फेरि प्रयास गर्नुहोस्।",

		KeyTooManyRequests: "धेरै अनुरोधहरू भए। कृपया केही समय पर्खेर फेरि प्रयास गर्नुहोस्।",
	},
}

var statusKeys = map[int]string{
	http.StatusBadRequest:          KeyBadRequest,
	http.StatusUnauthorized:        KeyUnauthorized,
	http.StatusForbidden:           KeyForbidden,
	http.StatusNotFound:            KeyNotFound,
	http.StatusInternalServerError: KeyServerError,
}

// Message returns the fixed message for key in lang.
func Message(lang Language, key string) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[English]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return table[KeyGeneric]
}

// StatusMessage returns the fixed message for a mapped status code.
func StatusMessage(lang Language, status int) (string, bool) {
	key, ok := statusKeys[status]
	if !ok {
		return "", false
	}
	return Message(lang, key), true
}
