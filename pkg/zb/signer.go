package zb

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"zbws/pkg/core"
)

// Digest returns the lowercase hex hash of the secret key. Leading and
// trailing whitespace is stripped before hashing, as the exchange does when
// it derives the key, so a key pasted with a trailing newline still signs
// correctly. The result, not the raw secret, is the HMAC key.
func Digest(secretKey string, alg core.DigestAlgorithm) (string, error) {
	data := []byte(strings.TrimSpace(secretKey))
	switch alg {
	case core.DigestMD5, "":
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:]), nil
	case core.DigestSHA1:
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", core.NewErrorf(core.ErrorTypeConfiguration, "digest", "unsupported digest algorithm %q", alg)
	}
}

// SignHMAC returns hex(HMAC-MD5(key, message)).
func SignHMAC(message, key string) string {
	h := hmac.New(md5.New, []byte(key))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Signer adds accesskey-derived signatures to payloads. It keeps only the
// digest of the secret key.
type Signer struct {
	accessKey string
	key       string
}

// NewSigner derives the signing key from creds. creds must carry an access key.
func NewSigner(creds *core.Credentials, alg core.DigestAlgorithm) (*Signer, error) {
	if creds == nil || strings.TrimSpace(creds.AccessKey) == "" {
		return nil, core.NewError(core.ErrorTypeConfiguration, "signer", core.ErrNoCredentials)
	}
	key, err := Digest(creds.SecretKey.Reveal(), alg)
	if err != nil {
		return nil, err
	}
	return &Signer{accessKey: creds.AccessKey, key: key}, nil
}

// AccessKey returns the access key placed in signed payloads.
func (s *Signer) AccessKey() string {
	return s.accessKey
}

// Sign computes the signature of p as it is now, appends it under "sign" and
// returns the final frame text. p must not already contain a sign field.
func (s *Signer) Sign(p *Payload) (string, error) {
	if _, ok := p.Get(KeySign); ok {
		return "", core.NewErrorf(core.ErrorTypeSerialization, "sign", "payload is already signed")
	}

	unsigned, err := p.MarshalJSON()
	if err != nil {
		return "", err
	}
	p.Set(KeySign, SignHMAC(string(unsigned), s.key))

	signed, err := p.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Verify reports whether a signed payload carries the signature this signer
// would produce for it.
func (s *Signer) Verify(p *Payload) bool {
	v, ok := p.Get(KeySign)
	if !ok {
		return false
	}
	got, ok := v.(string)
	if !ok {
		return false
	}
	unsigned, err := p.Without(KeySign).MarshalJSON()
	if err != nil {
		return false
	}
	want := SignHMAC(string(unsigned), s.key)
	return hmac.Equal([]byte(got), []byte(want))
}
