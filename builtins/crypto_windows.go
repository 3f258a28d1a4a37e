//go:build windows

package builtins

import "errors"

// cryptPlatform has no crypt(3) to call on Windows
func cryptPlatform(password, salt string) (string, error) {
	return "", errors.New("crypt is not available on this platform")
}
