// Package testsite serves a small shop used by integration tests: a home
// page, a product form, a cookie-backed cart, a login-protected dashboard
// and a few redirect endpoints.
package testsite

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	Username = "testuser"
	Password = "testpass"
)

// New returns the site's router.
func New() *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()

	g.GET("/", page(homePage))
	g.GET("/data", page(dataPage))
	g.GET("/products", page(productsPage))
	g.GET("/checkout", page(checkoutPage))
	g.GET("/login", page(loginPage))
	g.GET("/post-redirect-test-form", page(postRedirectFormPage))

	g.POST("/cart/add", func(c *gin.Context) {
		item := strings.Join([]string{c.PostForm("productId"), c.PostForm("size"), c.PostForm("quantity")}, ":")
		c.SetCookie("cart_item", item, 0, "/", "", false, false)
		c.Redirect(http.StatusFound, "/cart")
	})

	g.GET("/cart", func(c *gin.Context) {
		item, err := c.Cookie("cart_item")
		if err != nil || item == "" {
			item = "1:Medium:1"
		}
		parts := strings.SplitN(item, ":", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		render(c, fmt.Sprintf(cartPage, html.EscapeString(parts[1]), html.EscapeString(parts[2])))
	})

	g.POST("/checkout/submit", func(c *gin.Context) {
		render(c, fmt.Sprintf(confirmationPage,
			html.EscapeString(c.PostForm("billing_name")),
			html.EscapeString(c.PostForm("email"))))
	})

	g.POST("/login", func(c *gin.Context) {
		if c.PostForm("username") == Username && c.PostForm("password") == Password {
			c.SetCookie("auth", "authenticated", 0, "/", "", false, true)
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		render(c, loginFailedPage)
	})

	g.GET("/dashboard", func(c *gin.Context) {
		if auth, _ := c.Cookie("auth"); auth != "authenticated" {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		render(c, dashboardPage)
	})

	g.GET("/redirect-test", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/products")
	})

	g.POST("/post-redirect-test", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/post-redirect-result?name="+url.QueryEscape(c.PostForm("billing_name")))
	})

	g.GET("/post-redirect-result", func(c *gin.Context) {
		name := c.Query("name")
		if name == "" {
			name = "Unknown"
		}
		render(c, fmt.Sprintf(postRedirectResultPage, html.EscapeString(name)))
	})

	g.GET("/status/:code", func(c *gin.Context) {
		var code int
		if _, err := fmt.Sscanf(c.Param("code"), "%d", &code); err != nil || code < 100 || code > 599 {
			code = http.StatusBadRequest
		}
		c.Data(code, "text/html; charset=utf-8", []byte("<html><body>status</body></html>"))
	})

	return g
}

// Start runs the site on a local listener. Close the server when done.
func Start() *httptest.Server {
	return httptest.NewServer(New())
}

func page(markup string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, markup)
	}
}

func render(c *gin.Context, markup string) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}
