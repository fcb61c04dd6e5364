package render_test

import (
	"github.com/sonnes/chatview/render"
	htmlrender "github.com/sonnes/chatview/render/html"
	jsonrender "github.com/sonnes/chatview/render/json"
	"github.com/sonnes/chatview/render/terminal"
)

var (
	_ render.Renderer        = (*htmlrender.Renderer)(nil)
	_ render.Renderer        = (*jsonrender.Renderer)(nil)
	_ render.Renderer        = (*terminal.Renderer)(nil)
	_ render.DisplayRenderer = (*htmlrender.Renderer)(nil)
	_ render.DisplayRenderer = (*terminal.Renderer)(nil)
	_ render.IndexRenderer   = (*jsonrender.Renderer)(nil)
	_ render.IndexRenderer   = (*terminal.Renderer)(nil)
)
