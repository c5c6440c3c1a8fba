package signature

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blowfish"
)

const (
	saltBytes       = 16
	hashBytes       = 23 // only 23 of the 24 encrypted bytes are encoded
	defaultSaltType = "2b"
)

const bcryptAlphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var bcryptEncoding = base64.NewEncoding(bcryptAlphabet).WithPadding(base64.NoPadding)

var saltPattern = regexp.MustCompile(`^\$(2[aby])\$(\d{2})\$([./A-Za-z0-9]{22})$`)

// "OrpheanBeholderScryDoubt"
var magicCipherData = []byte{
	0x4f, 0x72, 0x70, 0x68,
	0x65, 0x61, 0x6e, 0x42,
	0x65, 0x68, 0x6f, 0x6c,
	0x64, 0x65, 0x72, 0x53,
	0x63, 0x72, 0x79, 0x44,
	0x6f, 0x75, 0x62, 0x74,
}

type bcryptSalt struct {
	version string
	cost    int
	salt    []byte
}

// parseSalt decodes a "$2b$10$<22 chars>" salt string.
func parseSalt(s string) (*bcryptSalt, error) {
	m := saltPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrInvalidSalt
	}
	cost, _ := strconv.Atoi(m[2])
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, ErrInvalidSalt
	}
	raw, err := bcryptEncoding.DecodeString(m[3])
	if err != nil || len(raw) != saltBytes {
		return nil, ErrInvalidSalt
	}
	return &bcryptSalt{version: m[1], cost: cost, salt: raw}, nil
}

// String renders the salt with the encoded part normalised, so the unused
// trailing bits of the last character are always zero.
func (s *bcryptSalt) String() string {
	return fmt.Sprintf("$%s$%02d$%s", s.version, s.cost, bcryptEncoding.EncodeToString(s.salt))
}

// hash computes the full 60 character bcrypt hash of password.
func (s *bcryptSalt) hash(password []byte) (string, error) {
	// trailing NUL is part of the key in C implementations
	key := make([]byte, 0, len(password)+1)
	key = append(key, password...)
	key = append(key, 0)

	c, err := blowfish.NewSaltedCipher(key, s.salt)
	if err != nil {
		return "", err
	}
	rounds := uint64(1) << uint(s.cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(key, c)
		blowfish.ExpandKey(s.salt, c)
	}

	data := make([]byte, len(magicCipherData))
	copy(data, magicCipherData)
	for i := 0; i < len(data); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(data[i:i+8], data[i:i+8])
		}
	}
	return s.String() + bcryptEncoding.EncodeToString(data[:hashBytes]), nil
}

func newRandomSalt(cost int) (*bcryptSalt, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	return &bcryptSalt{version: defaultSaltType, cost: cost, salt: raw}, nil
}

// IsValidBcryptSalt reports whether s can be used verbatim as a bcrypt salt.
func IsValidBcryptSalt(s string) bool {
	_, err := parseSalt(s)
	return err == nil
}

// GenerateSalt returns a fresh random salt string at the given cost.
func GenerateSalt(cost int) (string, error) {
	salt, err := newRandomSalt(cost)
	if err != nil {
		return "", err
	}
	return salt.String(), nil
}
