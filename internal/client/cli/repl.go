package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate. The real
// App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool

	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Status(ctx context.Context) error

	Presence(ctx context.Context) error
	Events(ctx context.Context) error
	MarkEvent(ctx context.Context, ref string, read bool) error
	ReadAll(ctx context.Context) error
	Alerts(ctx context.Context) error

	Chats(ctx context.Context) error
	Open(ctx context.Context, ref string) error
	Send(ctx context.Context, text string) error
	CloseChat(ctx context.Context) error
	DeleteChat(ctx context.Context, ref string) error

	Notifs(ctx context.Context) error
	NotifRead(ctx context.Context, ref string) error
	NotifReadAll(ctx context.Context) error
	Prefs(ctx context.Context) error

	Posts(ctx context.Context) error
	Post(ctx context.Context) error
	Like(ctx context.Context, ref string) error
	Comments(ctx context.Context, ref string) error
	Comment(ctx context.Context, ref, text string) error
	Report(ctx context.Context, ref, reason string) error
	Reports(ctx context.Context) error
	Resolve(ctx context.Context, ref string) error

	Users(ctx context.Context) error
	Approve(ctx context.Context, username string) error

	Cards(ctx context.Context) error
	Upload(ctx context.Context, path, title string) error
	Quiz(ctx context.Context, ref string) error
	Answer(ctx context.Context, letter string) error
	Skip(ctx context.Context) error
	Submit(ctx context.Context) error
	Abandon(ctx context.Context) error
	Explain(ctx context.Context) error
	Hide(ctx context.Context) error
	Nav(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the StudyHall CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are printed and swallowed; the
// loop itself never fails.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sh> %s", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printHelp(a)

		case "login":
			err = a.Login(ctx)
		case "register":
			err = a.Register(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.Whoami(ctx)
		case "status":
			err = a.Status(ctx)

		case "presence":
			err = a.Presence(ctx)
		case "events":
			err = a.Events(ctx)
		case "read":
			if len(args) == 0 {
				printlnFn("Usage: read <n>")
				continue
			}
			err = a.MarkEvent(ctx, args[0], true)
		case "unread":
			if len(args) == 0 {
				printlnFn("Usage: unread <n>")
				continue
			}
			err = a.MarkEvent(ctx, args[0], false)
		case "read-all":
			err = a.ReadAll(ctx)
		case "alerts":
			err = a.Alerts(ctx)

		case "chats":
			err = a.Chats(ctx)
		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <n|username>")
				continue
			}
			err = a.Open(ctx, args[0])
		case "send":
			if len(args) == 0 {
				printlnFn("Usage: send <text>")
				continue
			}
			err = a.Send(ctx, strings.Join(args, " "))
		case "close":
			err = a.CloseChat(ctx)
		case "delete-chat":
			if len(args) == 0 {
				printlnFn("Usage: delete-chat <n>")
				continue
			}
			err = a.DeleteChat(ctx, args[0])

		case "notifs":
			err = a.Notifs(ctx)
		case "notif-read":
			if len(args) == 0 {
				printlnFn("Usage: notif-read <n>")
				continue
			}
			err = a.NotifRead(ctx, args[0])
		case "notif-read-all":
			err = a.NotifReadAll(ctx)
		case "prefs":
			err = a.Prefs(ctx)

		case "posts":
			err = a.Posts(ctx)
		case "post":
			err = a.Post(ctx)
		case "like":
			if len(args) == 0 {
				printlnFn("Usage: like <n>")
				continue
			}
			err = a.Like(ctx, args[0])
		case "comments":
			if len(args) == 0 {
				printlnFn("Usage: comments <n>")
				continue
			}
			err = a.Comments(ctx, args[0])
		case "comment":
			if len(args) < 2 {
				printlnFn("Usage: comment <n> <text>")
				continue
			}
			err = a.Comment(ctx, args[0], strings.Join(args[1:], " "))
		case "report":
			if len(args) < 2 {
				printlnFn("Usage: report <n> <reason>")
				continue
			}
			err = a.Report(ctx, args[0], strings.Join(args[1:], " "))
		case "reports":
			err = a.Reports(ctx)
		case "resolve":
			if len(args) == 0 {
				printlnFn("Usage: resolve <n>")
				continue
			}
			err = a.Resolve(ctx, args[0])

		case "users":
			err = a.Users(ctx)
		case "approve":
			if len(args) == 0 {
				printlnFn("Usage: approve <username>")
				continue
			}
			err = a.Approve(ctx, args[0])

		case "cards":
			err = a.Cards(ctx)
		case "upload":
			if len(args) < 2 {
				printlnFn("Usage: upload <path> <title>")
				continue
			}
			err = a.Upload(ctx, args[0], strings.Join(args[1:], " "))
		case "quiz":
			if len(args) == 0 {
				printlnFn("Usage: quiz <n>")
				continue
			}
			err = a.Quiz(ctx, args[0])
		case "answer":
			if len(args) == 0 {
				printlnFn("Usage: answer <letter>")
				continue
			}
			err = a.Answer(ctx, args[0])
		case "skip":
			err = a.Skip(ctx)
		case "submit":
			err = a.Submit(ctx)
		case "abandon":
			err = a.Abandon(ctx)
		case "explain":
			err = a.Explain(ctx)
		case "hide":
			err = a.Hide(ctx)
		case "nav":
			err = a.Nav(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func printHelp(a execIface) {
	if !a.isLoggedIn() {
		printlnFn("Available commands: register, login, status, help, exit")
		return
	}
	printlnFn("Account:    whoami, status, logout")
	printlnFn("Chat:       chats, open <n|user>, send <text>, close, delete-chat <n>")
	printlnFn("Notifs:     notifs, notif-read <n>, notif-read-all, prefs")
	printlnFn("Community:  posts, post, like <n>, comments <n>, comment <n> <text>, report <n> <reason>")
	printlnFn("Flashcards: cards, upload <path> <title>, quiz <n>, answer <letter>, skip, submit, abandon, explain")
	if a.isAdmin() {
		printlnFn("Admin:      presence, events, read <n>, unread <n>, read-all, alerts, reports, resolve <n>, users, approve <user>")
	}
	printlnFn("Other:      help, exit")
}
