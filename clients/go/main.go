// NextHire CLI - command line client for the NextHire API
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/clients/go/nexthire"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := nexthire.NewClient(os.Getenv("NEXTHIRE_URL"))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd := os.Args[1]; cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "login":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: nexthire login <email> <password>")
			os.Exit(1)
		}
		resp, err := client.Login(ctx, os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Logged in as %s (%s)\n", resp.User.Email, resp.User.Role)

	case "me":
		user, err := client.Me(ctx)
		exitOnError(err)
		printJSON(user)

	case "jobs":
		query := ""
		if len(os.Args) > 2 {
			query = os.Args[2]
		}
		jobs, err := client.ListJobs(ctx, query)
		exitOnError(err)
		for _, j := range jobs {
			fmt.Printf("  %s  %s @ %s (%d applicants)\n", j.ID, j.Title, j.EnterpriseName, j.ApplicantCount)
		}

	case "send":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: nexthire send <user_id> <message>")
			os.Exit(1)
		}
		msg, err := client.SendMessage(ctx, os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Sent: %s\n", msg.ID)

	case "history":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: nexthire history <user_id>")
			os.Exit(1)
		}
		me, err := client.Me(ctx)
		exitOnError(err)
		msgs, err := client.History(ctx, me.ID.String(), os.Args[2])
		exitOnError(err)
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04:05"), short(m.From), m.Text)
		}

	case "notifications":
		list, err := client.Notifications(ctx)
		exitOnError(err)
		for _, n := range list {
			seen := " "
			if !n.Seen {
				seen = "*"
			}
			fmt.Printf("%s [%s] %s\n", seen, n.Type, n.Message)
		}

	case "listen":
		err := client.Listen(ctx, func(ev nexthire.Event) {
			fmt.Printf("%s %s\n", ev.Event, ev.Data)
		})
		if ctx.Err() == nil {
			exitOnError(err)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`NextHire CLI

Usage: nexthire <command> [options]

Commands:
  login <email> <password>   Sign in and save the token
  me                         Show the signed-in user
  jobs [query]               List job offers
  send <user_id> <message>   Send a chat message
  history <user_id>          Show a conversation
  notifications              List notifications
  listen                     Print realtime events
  health                     Check server health

Environment:
  NEXTHIRE_URL      Server URL (default: http://localhost:8080)
  NEXTHIRE_CONFIG   Config directory (default: ~/.nexthire)`)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
