package main

import (
	"strings"
	"testing"
)

func TestRenderPage(t *testing.T) {
	page := renderPage("play.example.com", "2222")
	if !strings.Contains(page, "ssh -p 2222 play.example.com") {
		t.Error("connect command missing from the page")
	}
	if strings.Contains(page, "{{") {
		t.Error("unfilled placeholder left in the page")
	}
}
