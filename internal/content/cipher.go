package content

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Packs use the OpenSSL passphrase format: base64("Salted__" | salt | ct)
// with key and IV derived by EVP_BytesToKey(MD5, 1 round) for AES-256-CBC.

const (
	saltMagic = "Salted__"
	saltLen   = 8
	keyLen    = 32
)

func deriveKeyIV(passphrase, salt []byte) (key, iv []byte) {
	var (
		out  []byte
		prev []byte
	)
	for len(out) < keyLen+aes.BlockSize {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:keyLen], out[keyLen : keyLen+aes.BlockSize]
}

// Decrypt opens one passphrase-encrypted layer and returns its UTF-8 text.
func Decrypt(passphrase, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrDecrypt, err)
	}
	if len(raw) < len(saltMagic)+saltLen+aes.BlockSize || string(raw[:len(saltMagic)]) != saltMagic {
		return "", fmt.Errorf("%w: missing salt header", ErrDecrypt)
	}
	salt := raw[len(saltMagic) : len(saltMagic)+saltLen]
	ct := raw[len(saltMagic)+saltLen:]
	if len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecrypt)
	}

	key, iv := deriveKeyIV([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	pt, err = unpad(pt)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(pt) {
		return "", fmt.Errorf("%w: plaintext is not UTF-8", ErrDecrypt)
	}
	return string(pt), nil
}

// Encrypt seals plaintext in one passphrase layer with a random salt.
func Encrypt(passphrase, plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, iv := deriveKeyIV([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	pt := pad([]byte(plaintext))
	out := make([]byte, 0, len(saltMagic)+saltLen+len(pt))
	out = append(out, saltMagic...)
	out = append(out, salt...)
	ct := make([]byte, len(pt))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, pt)
	out = append(out, ct...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
