package codeforces

import (
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// sign adds apiKey, time and apiSig as described in the Codeforces API docs:
// apiSig = rand + sha512hex(rand/method?sortedParams#secret).
func (c *Client) sign(method string, params url.Values) url.Values {
	signed := url.Values{}
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	signed.Set("apiKey", c.cfg.APIKey)
	signed.Set("time", strconv.FormatInt(c.now().Unix(), 10))

	nonce := uuid.NewString()[:6]
	signed.Set("apiSig", nonce+apiSig(nonce, method, signed, c.cfg.APISecret))
	return signed
}

// apiSig hashes the parameters (without apiSig itself) sorted by key.
func apiSig(nonce, method string, params url.Values, secret string) string {
	clean := url.Values{}
	for k, v := range params {
		if k != "apiSig" {
			clean[k] = v
		}
	}
	sum := sha512.Sum512([]byte(nonce + "/" + method + "?" + clean.Encode() + "#" + secret))
	return hex.EncodeToString(sum[:])
}
