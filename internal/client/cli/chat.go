package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/chat"
)

// peer returns the other participant of a conversation.
func (a *App) peer(c api.ConversationSummary) string {
	me := ""
	if s := a.core.Sessions.Current(); s != nil {
		me = s.Username
	}
	for _, p := range c.Participants {
		if p.Username != me {
			return p.Username
		}
	}
	return "?"
}

// Chats prints the conversation list the 3s poll keeps fresh.
func (a *App) Chats(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	convs := a.core.Chat.Conversations()
	if len(convs) == 0 {
		fmt.Println("No conversations.")
		a.lastChats = nil
		return nil
	}
	for i, c := range convs {
		badge := ""
		if c.UnreadCount > 0 {
			badge = fmt.Sprintf(" [%d unread]", c.UnreadCount)
		}
		fmt.Printf("%2d %-16s %s  %s%s\n",
			i+1, a.peer(c), c.LastMessageAt.Local().Format("01-02 15:04"), c.LastMessagePreview, badge)
	}
	a.lastChats = convs
	return nil
}

// Open focuses a conversation. A number refers to the last chats printout;
// anything else is treated as a username and open-or-creates the chat.
func (a *App) Open(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	if _, err := strconv.Atoi(ref); err == nil {
		i, err := resolveIndex(ref, len(a.lastChats))
		if err != nil {
			return err
		}
		a.core.SelectConversation(ctx, a.lastChats[i].ID)
		return a.printOpenConversation()
	}

	if _, err := a.core.OpenConversation(ctx, ref); err != nil {
		return err
	}
	return a.printOpenConversation()
}

func (a *App) printOpenConversation() error {
	c, ok := a.core.Chat.Selected()
	if !ok {
		return fmt.Errorf("no open conversation")
	}
	fmt.Printf("--- chat with %s ---\n", a.peer(c))
	a.printMessages(a.core.Chat.Messages(), c)
	return nil
}

func (a *App) printMessages(msgs []api.Message, c api.ConversationSummary) {
	me := ""
	if s := a.core.Sessions.Current(); s != nil {
		me = s.Username
	}
	for _, m := range msgs {
		status := ""
		if m.Sender.Username == me {
			status = "  (" + chat.DeliveryStatus(m, c.Participants, me) + ")"
		}
		fmt.Printf("%s %-12s %s%s\n", m.CreatedAt.Local().Format("15:04:05"), m.Sender.Username+":", m.Body, status)
	}
}

// Send posts a message into the open conversation and echoes it back.
func (a *App) Send(ctx context.Context, text string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	msg, err := a.core.SendMessage(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("sent %s: %s\n", msg.CreatedAt.Local().Format("15:04:05"), msg.Body)
	return nil
}

// CloseChat unfocuses the conversation; its message poll stops.
func (a *App) CloseChat(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.core.CloseConversation()
	fmt.Println("Conversation closed.")
	return nil
}

// DeleteChat soft-deletes one row from the last chats printout.
func (a *App) DeleteChat(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastChats))
	if err != nil {
		return err
	}
	if err := a.core.DeleteConversation(ctx, a.lastChats[i].ID); err != nil {
		return err
	}
	fmt.Println("Conversation deleted.")
	return nil
}
