package handler

import (
	"embed"
	"net/http"
)

//go:embed pages/*.html
var pages embed.FS

// servePage は埋め込みのHTMLページを返す。
// アクセス制御はRouteGuardが行う。
func servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := pages.ReadFile("pages/" + name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}
}
