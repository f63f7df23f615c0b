package domain

// Fingerprint is a deterministic, fixed-length hash identifying content.
// Identical bytes or text always yield the same fingerprint.
type Fingerprint string

// String returns the hex representation.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first 12 characters, for display.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}
