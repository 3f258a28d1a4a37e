package builtins

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	passcrypt "github.com/sergeymakinen/go-crypt"
	_ "github.com/sergeymakinen/go-crypt/md5"
	_ "github.com/sergeymakinen/go-crypt/sha256"
	_ "github.com/sergeymakinen/go-crypt/sha512"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/ripemd160"

	"ember/types"
)

// CryptoModuleName is the name scripts import the crypto natives by
const CryptoModuleName = "Crypto"

// argon2 parameters used when the script gives none
const (
	argon2Time    = uint32(1)
	argon2Memory  = uint32(64 * 1024)
	argon2Threads = uint8(2)
	argon2KeyLen  = uint32(32)
)

// NewCryptoModule creates the registry backing "import Crypto"
func NewCryptoModule() *Registry {
	r := NewEmptyRegistry()
	r.Register("sha256", []string{"text"}, builtinSHA256)
	r.Register("ripemd160", []string{"text"}, builtinRIPEMD160)
	r.Register("hex", []string{"text"}, builtinHex)
	r.Register("argon2", []string{"password", "salt", "time", "memory", "threads", "keyLen"}, builtinArgon2)
	r.Register("argon2_verify", []string{"hash", "password"}, builtinArgon2Verify)
	r.Register("crypt", []string{"password", "salt"}, builtinCrypt)
	r.Register("crypt_verify", []string{"hash", "password"}, builtinCryptVerify)
	return r
}

// builtinSHA256 hashes text, returning lowercase hex
// sha256(text) -> text
func builtinSHA256(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "sha256", 1, 1); err != nil {
		return nil, err
	}
	text, err := textArg(call, "sha256", 0)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	return types.NewText(hex.EncodeToString(sum[:])), nil
}

// builtinRIPEMD160 hashes text, returning lowercase hex
// ripemd160(text) -> text
func builtinRIPEMD160(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "ripemd160", 1, 1); err != nil {
		return nil, err
	}
	text, err := textArg(call, "ripemd160", 0)
	if err != nil {
		return nil, err
	}
	h := ripemd160.New()
	h.Write([]byte(text))
	return types.NewText(hex.EncodeToString(h.Sum(nil))), nil
}

// builtinHex encodes the bytes of text as hex
func builtinHex(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "hex", 1, 1); err != nil {
		return nil, err
	}
	text, err := textArg(call, "hex", 0)
	if err != nil {
		return nil, err
	}
	return types.NewText(hex.EncodeToString([]byte(text))), nil
}

// builtinArgon2 derives an argon2id hash in the PHC string format
// argon2(password[, salt[, time, memory, threads, keyLen]]) -> text
func builtinArgon2(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "argon2", 1, 6); err != nil {
		return nil, err
	}
	password, err := textArg(call, "argon2", 0)
	if err != nil {
		return nil, err
	}
	var salt []byte
	if len(call.Args) >= 2 && call.Args[1] != types.None {
		s, err := textArg(call, "argon2", 1)
		if err != nil {
			return nil, err
		}
		if len(s) < 8 {
			return nil, types.NewError(types.E_ARGS, "argon2() salt must be at least 8 bytes")
		}
		salt = []byte(s)
	} else {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("argon2: %w", err)
		}
	}

	params := []float64{float64(argon2Time), float64(argon2Memory), float64(argon2Threads), float64(argon2KeyLen)}
	for i := 2; i < len(call.Args); i++ {
		n, err := numberArg(call, "argon2", i)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, types.NewError(types.E_ARGS, "argon2() argument %d must be positive", i+1)
		}
		params[i-2] = n
	}
	t, m, p, keyLen := uint32(params[0]), uint32(params[1]), uint8(params[2]), uint32(params[3])

	h := argon2.IDKey([]byte(password), salt, t, m, p, keyLen)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, m, t, p,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(h),
	)
	return types.NewText(encoded), nil
}

func parseArgon2Hash(encoded string) (m, t uint32, p uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("not an argon2id hash")
	}
	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed argon2 parameters %q", parts[3])
	}
	m64, err := strconv.ParseUint(strings.TrimPrefix(params[0], "m="), 10, 32)
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	t64, err := strconv.ParseUint(strings.TrimPrefix(params[1], "t="), 10, 32)
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	p64, err := strconv.ParseUint(strings.TrimPrefix(params[2], "p="), 10, 8)
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	return uint32(m64), uint32(t64), uint8(p64), salt, hash, nil
}

// builtinArgon2Verify checks a password against an argon2 hash
// argon2_verify(hash, password) -> Boolean
func builtinArgon2Verify(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "argon2_verify", 2, 2); err != nil {
		return nil, err
	}
	encoded, err := textArg(call, "argon2_verify", 0)
	if err != nil {
		return nil, err
	}
	password, err := textArg(call, "argon2_verify", 1)
	if err != nil {
		return nil, err
	}
	m, t, p, salt, expected, err := parseArgon2Hash(encoded)
	if err != nil {
		return nil, types.NewError(types.E_ARGS, "argon2_verify(): %v", err)
	}
	actual := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(expected)))
	return types.NewBool(subtle.ConstantTimeCompare(actual, expected) == 1), nil
}

// builtinCrypt hashes a password with the system crypt(3); the salt
// prefix picks the algorithm ($1$, $5$, $6$, or two characters for DES)
// crypt(password, salt) -> text
func builtinCrypt(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "crypt", 2, 2); err != nil {
		return nil, err
	}
	password, err := textArg(call, "crypt", 0)
	if err != nil {
		return nil, err
	}
	salt, err := textArg(call, "crypt", 1)
	if err != nil {
		return nil, err
	}
	result, err := cryptPlatform(password, salt)
	if err != nil {
		return nil, types.NewError(types.E_ARGS, "crypt(): %v", err)
	}
	return types.NewText(result), nil
}

// builtinCryptVerify checks a password against a crypt(3) style hash
// crypt_verify(hash, password) -> Boolean
func builtinCryptVerify(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "crypt_verify", 2, 2); err != nil {
		return nil, err
	}
	hash, err := textArg(call, "crypt_verify", 0)
	if err != nil {
		return nil, err
	}
	password, err := textArg(call, "crypt_verify", 1)
	if err != nil {
		return nil, err
	}
	return types.NewBool(passcrypt.Check(hash, password) == nil), nil
}
