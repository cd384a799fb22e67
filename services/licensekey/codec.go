package licensekey

import (
	"errors"
	"strings"

	"entitlement-controlplane/pkg/errutil"
)

const (
	PrefixLength    = 5
	BodyLength      = 10
	CanonicalLength = PrefixLength + BodyLength
	DisplayLength   = CanonicalLength + 2
	groupLength     = 5
	DefaultPrefix   = "OWLTD"
)

var ErrInvalidKeyFormat = errors.New("invalid license key format")

// Codec validates key codes against the configured product prefix.
type Codec struct {
	prefix string
}

func NewCodec(prefix string) (*Codec, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefix = strings.ToUpper(prefix)
	if len(prefix) != PrefixLength || strings.IndexFunc(prefix, func(r rune) bool { return !isAlphaNumeric(r) }) >= 0 {
		return nil, errors.New("license key prefix must be 5 alphanumeric characters")
	}
	return &Codec{prefix: prefix}, nil
}

func (c *Codec) Prefix() string {
	return c.prefix
}

// Normalize uppercases input and drops every non-alphanumeric character. The
// remainder must be exactly 15 characters starting with the prefix; the result
// is the display form PREFIX-XXXXX-XXXXX that keys are stored under.
func (c *Codec) Normalize(input string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if !isAlphaNumeric(r) {
			return -1
		}
		return r
	}, input)

	if len(compact) != CanonicalLength || !strings.HasPrefix(compact, c.prefix) {
		return "", errutil.ValidationFailed("invalid license key format", ErrInvalidKeyFormat,
			errutil.WithDetails(errutil.Detail{Field: "key_code", Message: "expected " + c.prefix + "-XXXXX-XXXXX"}))
	}

	return Render(compact), nil
}

// Render inserts separators into a 15 character code. Codes that already carry
// separators are returned as is; anything else is returned unchanged.
func Render(code string) string {
	if len(code) != CanonicalLength {
		return code
	}
	var b strings.Builder
	b.Grow(DisplayLength)
	b.WriteString(code[:PrefixLength])
	for i := PrefixLength; i < CanonicalLength; i += groupLength {
		b.WriteByte('-')
		b.WriteString(code[i : i+groupLength])
	}
	return b.String()
}

// Compose joins the prefix with a 10 character body into a display form key.
func (c *Codec) Compose(body string) string {
	return Render(c.prefix + body)
}

// Mask hides the middle of a key for logs.
func Mask(code string) string {
	if len(code) != DisplayLength {
		return "***"
	}
	return code[:PrefixLength] + "-*****-" + code[DisplayLength-groupLength:]
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
