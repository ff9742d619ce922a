package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerificationTemplate(t *testing.T) {
	body, err := render(verificationTmpl, map[string]string{"Name": "Alice", "Code": "123456"})
	require.NoError(t, err)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "123456")
}

func TestRenderResetRequestTemplate_EscapesURL(t *testing.T) {
	body, err := render(resetRequestTmpl, map[string]string{
		"ResetURL": "http://localhost:5173/reset-password/abc123",
	})
	require.NoError(t, err)
	assert.Contains(t, body, `href="http://localhost:5173/reset-password/abc123"`)
}
