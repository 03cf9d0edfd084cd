package auth

import (
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-field-analyzer/oauthmodel"
)

// PKCEChallenge pairs a verifier with its S256 challenge.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    oauthmodel.CodeMethodType
}

// NewPKCEChallenge generates a verifier of 32 random bytes (base64url, unpadded) and
// derives the challenge as BASE64URL(SHA256(verifier)).
func NewPKCEChallenge() PKCEChallenge {
	return PKCEChallengeFromVerifier(oauth2.GenerateVerifier())
}

func PKCEChallengeFromVerifier(verifier string) PKCEChallenge {
	return PKCEChallenge{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
		Method:    oauthmodel.CodeMethodTypeS256,
	}
}
