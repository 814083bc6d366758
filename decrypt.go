package props

// Decryptor turns a stored, encrypted property value into clear text.
type Decryptor interface {
	Decrypt(value string) (string, error)
}

// DecryptorFunc adapts a function to Decryptor.
type DecryptorFunc func(value string) (string, error)

// Decrypt implements Decryptor.
func (f DecryptorFunc) Decrypt(value string) (string, error) {
	if f == nil {
		return value, nil
	}
	return f(value)
}

// IdentityDecryptor returns values unchanged. It is used when an accessor is
// marked encrypted but no Decryptor was configured.
type IdentityDecryptor struct{}

// Decrypt implements Decryptor.
func (IdentityDecryptor) Decrypt(value string) (string, error) {
	return value, nil
}
