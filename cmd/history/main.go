// Command history prints a relay messages file as a table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/storage"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	path := flag.String("file", "messages.json", "Path to the messages file")
	sender := flag.String("sender", "", "Only show messages from this session id")
	tail := flag.Int("tail", 0, "Only show the last N messages (0 shows all)")
	flag.Parse()

	messages, err := storage.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", *path, err)
		os.Exit(1)
	}

	selected := selectMessages(messages, *sender, *tail)

	header := fmt.Sprintf("%d of %d messages from %s", len(selected), len(messages), *path)
	fmt.Println(color.New(color.FgGreen, color.OpBold).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Time", "Sender", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, m := range selected {
		table.Append([]string{fmt.Sprint(i + 1), m.Timestamp, m.Sender, m.Text})
	}
	table.Render()
}

func selectMessages(messages []chat.Message, sender string, tail int) []chat.Message {
	if sender != "" {
		messages = lo.Filter(messages, func(m chat.Message, _ int) bool {
			return m.Sender == sender
		})
	}
	if tail > 0 && len(messages) > tail {
		messages = messages[len(messages)-tail:]
	}
	return messages
}
