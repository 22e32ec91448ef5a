package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Standard Webhooks header names.
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

const (
	signatureVersion = "v1"

	// DefaultTolerance bounds how far a delivery timestamp may drift from now.
	DefaultTolerance = 5 * time.Minute
)

// SignatureHeaders are the signature headers of one delivery.
type SignatureHeaders struct {
	ID        string
	Timestamp int64
	Signature string // space separated list of "v1,<base64>"
}

// Apply sets the headers on h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderID, s.ID)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderSignature, s.Signature)
}

// ExtractSignatureHeaders reads the signature headers of a delivery.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		ID:        h.Get(HeaderID),
		Signature: h.Get(HeaderSignature),
	}
	ts := h.Get(HeaderTimestamp)
	if sig.ID == "" || sig.Signature == "" || ts == "" {
		return SignatureHeaders{}, ErrMissingHeaders
	}

	var err error
	sig.Timestamp, err = strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
	}
	return sig, nil
}

// SignPayload signs payload as a new delivery. Used by tests and local
// tooling to produce requests the Handler accepts.
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, ErrSecretNotConfigured
	}
	id := "msg_" + uuid.NewString()
	ts := time.Now().Unix()
	return SignatureHeaders{
		ID:        id,
		Timestamp: ts,
		Signature: signatureVersion + "," + sign(secret, id, ts, payload),
	}, nil
}

// VerifySignature checks that one of the signatures in headers was produced
// with secret over "id.timestamp.payload" and that the timestamp is within
// tolerance of now.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, tolerance time.Duration) error {
	if secret == "" {
		return ErrSecretNotConfigured
	}

	if tolerance > 0 {
		drift := time.Since(time.Unix(headers.Timestamp, 0))
		if drift > tolerance || drift < -tolerance {
			return fmt.Errorf("%w: %s", ErrTimestampOutOfRange, drift.Round(time.Second))
		}
	}

	expected := []byte(sign(secret, headers.ID, headers.Timestamp, payload))
	for candidate := range strings.FieldsSeq(headers.Signature) {
		version, value, ok := strings.Cut(candidate, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal(expected, []byte(value)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func sign(secret, id string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	mac.Write([]byte{'.'})
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
