// acp CLI - command line client for the ACP agent bridge
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/acp-protocol/bridge/clients/go/acp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("ACP_BRIDGE_URL")
	agentID := os.Getenv("ACP_AGENT_ID")
	if agentID == "" {
		agentID = "cli"
	}

	client := acp.NewClient(baseURL, agentID)
	cmd := os.Args[1]

	switch cmd {
	case "status":
		resp, err := client.Status()
		exitOnError(err)
		printJSON(resp)

	case "messages":
		messages, err := client.Messages()
		exitOnError(err)
		for _, msg := range messages {
			line := fmt.Sprintf("[%s] %s -> %s (%s)", msg.Timestamp, msg.Sender.ID, msg.Recipient.ID, msg.MessageType)
			if text, ok := msg.Content["text"].(string); ok {
				line += ": " + text
			}
			fmt.Println(line)
		}

	case "send":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: acp send <recipient> <text> [role]")
			os.Exit(1)
		}
		role := "user"
		if len(os.Args) > 4 {
			role = os.Args[4]
		}
		resp, err := client.SendConversation(os.Args[2], role, os.Args[3])
		exitOnError(err)
		fmt.Printf("Sent: %s\n", resp.MessageID)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`acp - ACP agent bridge client

Usage: acp <command> [options]

Commands:
  status                       Check bridge status and capabilities
  messages                     Read the stored message log
  send <recipient> <text>      Send a conversation envelope
  help                         Show this help

Environment:
  ACP_BRIDGE_URL    Bridge base URL (default http://localhost:8000)
  ACP_AGENT_ID      Sender identity (default "cli")`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
