package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTMLStripsMarkup(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style><script>var a=1;</script></head>
<body>
<nav><a href="/">Home</a><a href="/fleet">Fleet</a></nav>
<h1>Our Fleet</h1>
<p>We operate 4,400 trucks, including 120 CNG tractors.</p>
<footer>All rights reserved</footer>
</body></html>`

	text := CleanHTML(html)

	assert.Contains(t, text, "Our Fleet")
	assert.Contains(t, text, "4,400 trucks")
	assert.NotContains(t, text, "var a=1")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "All rights reserved")
}

func TestCleanHTMLKeepsTableStructure(t *testing.T) {
	html := `<table>
<tr><th>Fuel type</th><th>Vehicles</th></tr>
<tr><td>Diesel</td><td>4280</td></tr>
<tr><td>CNG</td><td>120</td></tr>
</table>`

	text := CleanHTML(html)

	assert.Contains(t, text, "Diesel\t4280")
	assert.Contains(t, text, "CNG\t120")
}

func TestCleanHTMLKeepsListItems(t *testing.T) {
	html := `<ul><li>EPA SmartWay partner</li><li>CARB compliant</li></ul>`
	text := CleanHTML(html)

	assert.Contains(t, text, "- EPA SmartWay partner")
	assert.Contains(t, text, "- CARB compliant")
}

func TestCleanHTMLDropsBoilerplateLines(t *testing.T) {
	html := `<p>Accept all cookies</p><p>Sign in</p><p>We publish an annual sustainability report with emissions data.</p>`
	text := CleanHTML(html)

	assert.NotContains(t, text, "cookies")
	assert.NotContains(t, text, "Sign in")
	assert.Contains(t, text, "sustainability report")
}

func TestCleanMarkdown(t *testing.T) {
	md := `# Sustainability

Read our [2024 ESG report](https://example.com/esg.pdf) for details.

[Skip to main content](#main)
`
	text := CleanMarkdown(md)

	assert.Contains(t, text, "Read our 2024 ESG report for details.")
	assert.NotContains(t, text, "https://example.com/esg.pdf")
	assert.NotContains(t, text, "Skip to main")
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, isBoilerplate("Accept All Cookies"))
	assert.True(t, isBoilerplate("Subscribe to our newsletter"))
	assert.False(t, isBoilerplate("We operate 120 CNG trucks"))
	// Long content lines survive even when they mention noisy words.
	assert.False(t, isBoilerplate("Our privacy policy commitments extend to emissions data published in the annual sustainability disclosure we file."))
}
