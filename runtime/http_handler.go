package runtime

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunRequest is the body of POST /scripts/:name/run.
type RunRequest struct {
	Inputs map[string]any `json:"inputs"`
	Target string         `json:"target"`
}

// NewHttpHandler exposes the app's scripts:
//
//	GET  /scripts             names of loaded scripts
//	GET  /scripts/:name       targets of one script
//	POST /scripts/:name/run   run a script; script errors answer 422
func NewHttpHandler(app *App, executor *Executor, g *gin.Engine) {
	g.GET("/scripts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"scripts": app.ScriptNames()})
	})
	g.GET("/scripts/:name", describeScript(app))
	g.POST("/scripts/:name/run", handleRun(app, executor))
}

func describeScript(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		script, ok := app.Scripts[c.Param("name")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Script not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":          script.Name,
			"defaultTarget": script.DefaultTarget,
			"targets":       script.TargetNames(),
		})
	}
}

var wrongBodyFormatRes = gin.H{"message": "Wrong request body format"}

func handleRun(app *App, executor *Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		script, ok := app.Scripts[c.Param("name")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Script not found"})
			return
		}

		var req RunRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, wrongBodyFormatRes)
			return
		}

		result, err := executor.Run(c.Request.Context(), script, ToStringValueMap(req.Inputs), req.Target)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "Script run failed",
				"script", script.Name,
				"path", c.Request.URL.Path,
				"error", err.Error())

			if se, ok := AsScriptError(err); ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"message": se.Message,
					"code":    se.Code,
					"target":  se.Target,
					"error":   se.Error(),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Error in script execution: " + err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
