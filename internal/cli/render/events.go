package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/dvote/internal/domain"
)

// RenderEvents lists the events a command emitted
func RenderEvents(out io.Writer, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(out, labelStyle.Sprint("\nEvents:"))
	for _, e := range events {
		fmt.Fprintf(out, "  %s %s\n", headerStyle.Sprint(e.EventName()), labelStyle.Sprint(e.String()))
	}
}
