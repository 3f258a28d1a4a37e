//go:build !windows

package builtins

import (
	gocrypt "github.com/amoghe/go-crypt"
)

// cryptPlatform calls the system crypt(3)
func cryptPlatform(password, salt string) (string, error) {
	return gocrypt.Crypt(password, salt)
}
