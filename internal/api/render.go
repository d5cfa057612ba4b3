package api

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myblogsite/myblog/web"
)

var staticDirs = []string{"css", "js", "images"}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(web.FS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// mountStatic serves the embedded assets under /css, /js and /images
func mountStatic(engine *gin.Engine) error {
	for _, dir := range staticDirs {
		sub, err := fs.Sub(web.FS, "static/"+dir)
		if err != nil {
			return fmt.Errorf("failed to open static dir %s: %w", dir, err)
		}
		engine.StaticFS("/"+dir, http.FS(sub))
	}
	return nil
}
