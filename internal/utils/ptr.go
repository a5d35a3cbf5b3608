package utils

// StringOrNil returns nil for the empty string and a pointer to s otherwise.
// Unset CLI values are sent as JSON null.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
