package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// Supported key algorithms.
const (
	AlgEd25519   = "ed25519"
	AlgSecp256k1 = "secp256k1"
	AlgRSAPSS    = "rsa-pss"
	AlgRSASHA256 = "rsa-sha256"
)

var ErrBadSignature = errors.New("invalid signature")

// VerifySignature checks sig over message with the given public key.
// Keys and signatures are base64 or hex, except secp256k1 which is hex only
// and signs the Ethereum personal-message hash.
func VerifySignature(alg, publicKey, message, signature string) error {
	switch strings.ToLower(alg) {
	case AlgEd25519:
		return verifyEd25519(publicKey, message, signature)
	case AlgSecp256k1:
		return verifySecp256k1(publicKey, message, signature)
	case AlgRSAPSS, AlgRSASHA256:
		return verifyRSA(strings.ToLower(alg), publicKey, message, signature)
	default:
		return fmt.Errorf("unsupported alg: %s", alg)
	}
}

func verifyEd25519(pub, message, sig string) error {
	pubBytes, err := decodeBase64OrHex(pub)
	if err != nil {
		return err
	}
	sigBytes, err := decodeBase64OrHex(sig)
	if err != nil {
		return err
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return errors.New("invalid ed25519 public key length")
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return errors.New("invalid ed25519 signature length")
	}
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(message), sigBytes) {
		return fmt.Errorf("%w: ed25519", ErrBadSignature)
	}
	return nil
}

func verifySecp256k1(pub, message, sig string) error {
	pubBytes, err := decodeHex(pub)
	if err != nil {
		return err
	}
	sigBytes, err := decodeHex(sig)
	if err != nil {
		return err
	}
	key, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return err
	}
	if len(sigBytes) < 64 {
		return errors.New("invalid secp256k1 signature length")
	}
	r := new(big.Int).SetBytes(sigBytes[:32])
	s := new(big.Int).SetBytes(sigBytes[32:64])
	if !ecdsa.Verify(key.ToECDSA(), ethereumPersonalHash([]byte(message)), r, s) {
		return fmt.Errorf("%w: secp256k1", ErrBadSignature)
	}
	return nil
}

func verifyRSA(alg, pub, message, sig string) error {
	key, err := parseRSAPublicKey(pub)
	if err != nil {
		return err
	}
	sigBytes, err := decodeBase64OrHex(sig)
	if err != nil {
		return err
	}
	h := sha256.Sum256([]byte(message))
	if alg == AlgRSAPSS {
		err = rsa.VerifyPSS(key, crypto.SHA256, h[:], sigBytes, nil)
	} else {
		err = rsa.VerifyPKCS1v15(key, crypto.SHA256, h[:], sigBytes)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadSignature, alg)
	}
	return nil
}

// parseRSAPublicKey accepts PEM (PKIX or PKCS#1) or base64/hex DER.
func parseRSAPublicKey(pub string) (*rsa.PublicKey, error) {
	pub = strings.TrimSpace(pub)
	if !strings.HasPrefix(pub, "-----BEGIN") {
		der, err := decodeBase64OrHex(pub)
		if err != nil {
			return nil, err
		}
		parsed, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("unsupported rsa public key")
		}
		return key, nil
	}

	block, _ := pem.Decode([]byte(pub))
	if block == nil {
		return nil, errors.New("invalid pem public key")
	}
	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if key, ok := parsed.(*rsa.PublicKey); ok {
			return key, nil
		}
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, errors.New("unsupported rsa public key")
	}
	return key, nil
}

func decodeBase64OrHex(input string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(input); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(input); err == nil {
		return b, nil
	}
	return decodeHex(input)
}

func decodeHex(input string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(input), "0x"))
}

func ethereumPersonalHash(msg []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d", len(msg))
	h.Write(msg)
	return h.Sum(nil)
}
