package ebicscrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// zeroIV is mandated by EBICS for transaction-key protected order data:
// the session key is single-use per transaction, so a fixed IV does not
// reintroduce the usual CBC weaknesses.
var zeroIV = make([]byte, aes.BlockSize)

// AESCBCEncrypt encrypts data with AES-128 in CBC mode, zero IV, and
// PKCS#7 padding. key must be 16 bytes.
func AESCBCEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: aes cipher: %w", err)
	}
	padded := pkcs7Pad(data, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, zeroIV).CryptBlocks(out, padded)
	return out, nil
}

// AESCBCDecrypt reverses AESCBCEncrypt, stripping the PKCS#7 padding.
func AESCBCDecrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: aes cipher: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ebicscrypto: ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, zeroIV).CryptBlocks(out, data)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("ebicscrypto: cannot unpad empty data")
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > n || padLen > aes.BlockSize {
		return nil, fmt.Errorf("ebicscrypto: invalid PKCS#7 padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("ebicscrypto: invalid PKCS#7 padding")
		}
	}
	return data[:n-padLen], nil
}
