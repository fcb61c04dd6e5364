// Generates an example session browser page and writes it to stdout.
// Usage: go run ./render/html/cmd/example > example.html
package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/sonnes/chatview/core"
	htmlrender "github.com/sonnes/chatview/render/html"
	"github.com/sonnes/chatview/view"
)

func main() {
	sid := "8397fc7c-39b9-4e25-81da-ed47a574a88a"

	s := view.State{
		Phase: view.PhaseContent,
		Sessions: []core.SessionSummary{
			{SessionID: sid, MessageCount: 4, FirstMessageID: 118},
			{SessionID: "whatsapp-+4915112345678", MessageCount: 12, FirstMessageID: 73},
			{SessionID: "telegram-220114", MessageCount: 2, FirstMessageID: 12},
		},
		Selected: sid,
		Records: []core.Record{
			{ID: 118, SessionID: sid, Message: core.Message{
				Type:    core.TypeHuman,
				Content: "Can you check whether order **#4471** shipped?",
			}},
			{ID: 119, SessionID: sid, Message: core.Message{
				Type:    core.TypeAI,
				Content: "Order **#4471** left the warehouse yesterday.\nTracking: DHL 00340434161094042557.",
			}},
			{ID: 120, SessionID: sid, Message: core.Message{
				Type:    core.TypeHuman,
				Content: "Great. And the <script>alert(1)</script> thing on the invoice?",
			}},
			{ID: 121, SessionID: sid, Message: core.Message{
				Type:    core.TypeAI,
				Content: "That text is shown literally, it never runs. The invoice total is **€ 84,90**.",
			}},
		},
	}

	r := htmlrender.New()
	if err := r.RenderDisplay(os.Stdout, view.Render(s)); err != nil {
		log.Fatal(err)
	}
}
