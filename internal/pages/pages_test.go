package pages

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemxplore/internal/authform"
	"chemxplore/internal/session"
)

func TestLoadContent(t *testing.T) {
	c, err := LoadContent()
	require.NoError(t, err)

	assert.Len(t, c.Chemicals.Items, 5)
	assert.Len(t, c.Procedure.Steps, 6)
	assert.Len(t, c.Process.Stages, 5)
	assert.Len(t, c.FAQ.Entries, 10)
	assert.Len(t, c.Home.Team, 5)
	assert.Equal(t, "Citric Acid", c.Chemicals.Items[0].Name)
}

func TestHazardBadge(t *testing.T) {
	assert.Equal(t, "Safe", HazardNone.Badge())
	assert.Equal(t, "Low Risk", HazardLow.Badge())
	assert.Equal(t, "Medium Risk", HazardMedium.Badge())
	assert.Equal(t, "High Risk", HazardHigh.Badge())
}

func TestNavMarksActivePage(t *testing.T) {
	nav := Nav("/faq")
	require.Len(t, nav, 6)
	for _, item := range nav {
		assert.Equal(t, item.Path == "/faq", item.Active, item.Path)
	}
	assert.Equal(t, []string{"/", "/chemicals", "/procedure", "/process", "/media", "/faq"}, Routes())
}

func TestRenderEveryPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	user := &session.User{Email: "student@example.com"}

	for _, route := range Routes() {
		ctx, ok := r.Context(route, user)
		require.True(t, ok, route)

		var html bytes.Buffer
		require.NoError(t, r.RenderHTML(&html, ctx), route)
		assert.Contains(t, html.String(), "student@example.com", route)
		assert.Contains(t, html.String(), `aria-current="page"`, route)
		assert.Contains(t, html.String(), "/chemistry-chat", route)

		var text bytes.Buffer
		require.NoError(t, r.RenderText(&text, ctx), route)
		assert.Contains(t, text.String(), "["+ctx.Page.Name+"]", route)
	}
}

func TestRenderChemicalsShowsBadges(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	ctx, _ := r.Context("/chemicals", nil)

	var text bytes.Buffer
	require.NoError(t, r.RenderText(&text, ctx))
	assert.Contains(t, text.String(), "Water [Safe]")
	assert.Contains(t, text.String(), "Hair Dryer (Heat Source) [Medium Risk]")
}

func TestRenderAuthPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderAuthHTML(&buf, AuthView{
		Mode:   authform.ModeSignUp,
		Email:  "bad",
		Errors: authform.FieldErrors{authform.FieldEmail: "Please enter a valid email address"},
		Notice: &authform.Notice{Title: "Account Exists", Destructive: true},
	}))
	out := buf.String()
	assert.Contains(t, out, "Create Account")
	assert.Contains(t, out, "Please enter a valid email address")
	assert.Contains(t, out, `name="confirmPassword"`)
	assert.Contains(t, out, "Account Exists")
	assert.Contains(t, out, `value="signup"`)
}

func TestRenderNotFound(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, ok := r.Context("/nowhere", nil)
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, r.RenderNotFoundHTML(&buf, "/nowhere"))
	assert.True(t, strings.Contains(buf.String(), "Page not found"))
}
