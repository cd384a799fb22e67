package licensekey

import (
	"errors"
	"testing"

	"entitlement-controlplane/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	codec, err := NewCodec("OWLTD")
	require.NoError(t, err)

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "display form", input: "OWLTD-ABCDE-12345", want: "OWLTD-ABCDE-12345"},
		{name: "lower case", input: "owltd-abcde-12345", want: "OWLTD-ABCDE-12345"},
		{name: "no separators", input: "OWLTDABCDE12345", want: "OWLTD-ABCDE-12345"},
		{name: "stray punctuation", input: "  owltd.abcde / 12345 \n", want: "OWLTD-ABCDE-12345"},
		{name: "mixed separators", input: "OWLTD_ABC-DE 123*45", want: "OWLTD-ABCDE-12345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := codec.Normalize(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	for _, input := range []string{
		"",
		"OWLTD-ABCDE-1234",
		"OWLTD-ABCDE-123456",
		"XXXXX-ABCDE-12345",
		"OWLTD-ABCDE-1234!",
		"-----",
	} {
		_, err := codec.Normalize(input)
		require.Error(t, err, input)
		require.True(t, errors.Is(err, ErrInvalidKeyFormat), input)
		require.True(t, errutil.Is(err, errutil.StatusValidationFailed), input)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	codec, err := NewCodec("OWLTD")
	require.NoError(t, err)

	for _, body := range []string{"ABCDE12345", "ZZZZZ99999", "A1B2C3D4E5"} {
		k := codec.Compose(body)
		require.Len(t, k, DisplayLength)

		got, err := codec.Normalize(Render(k))
		require.NoError(t, err)
		require.Equal(t, k, got)

		got, err = codec.Normalize(Render("OWLTD" + body))
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
}

func TestNewCodecRejectsBadPrefix(t *testing.T) {
	for _, prefix := range []string{"OWL", "OWLTDX", "OW-TD"} {
		_, err := NewCodec(prefix)
		require.Error(t, err, prefix)
	}

	codec, err := NewCodec("abcde")
	require.NoError(t, err)
	require.Equal(t, "ABCDE", codec.Prefix())
}

func TestMask(t *testing.T) {
	require.Equal(t, "OWLTD-*****-12345", Mask("OWLTD-ABCDE-12345"))
	require.Equal(t, "***", Mask("short"))
}
